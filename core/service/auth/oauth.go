// Package auth implements the account connection flow.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ioa2205/email-support-agent/core/domain"
	"github.com/ioa2205/email-support-agent/core/port/out"
	"github.com/ioa2205/email-support-agent/pkg/apperr"
	"github.com/ioa2205/email-support-agent/pkg/logger"
)

const stateTTL = 10 * time.Minute

// OAuthService drives the authorization-code flow that connects a
// mailbox to the agent. Pending CSRF states are held in memory; a state
// that outlives its TTL or the process is simply re-requested.
type OAuthService struct {
	provider out.OAuthProvider
	accounts out.AccountRepository

	mu     sync.Mutex
	states map[string]time.Time
}

// NewOAuthService creates a new OAuthService.
func NewOAuthService(provider out.OAuthProvider, accounts out.AccountRepository) *OAuthService {
	return &OAuthService{
		provider: provider,
		accounts: accounts,
		states:   make(map[string]time.Time),
	}
}

// BeginConnect issues a CSRF state and returns the consent page URL.
func (s *OAuthService) BeginConnect() string {
	state := uuid.NewString()

	s.mu.Lock()
	s.pruneLocked(time.Now())
	s.states[state] = time.Now().Add(stateTTL)
	s.mu.Unlock()

	return s.provider.AuthURL(state)
}

// CompleteConnect validates the callback, exchanges the code and stores
// the connected account. Returns the mailbox address that was connected.
func (s *OAuthService) CompleteConnect(ctx context.Context, state, code string) (string, error) {
	if !s.consumeState(state) {
		return "", apperr.BadRequest("invalid or expired oauth state")
	}
	if code == "" {
		return "", apperr.MissingField("code")
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return "", apperr.OAuthFailed("code exchange", err)
	}

	email, err := s.provider.FetchUserEmail(ctx, token)
	if err != nil {
		return "", apperr.OAuthFailed("profile lookup", err)
	}

	account := &domain.Account{
		UserEmail:    email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry,
		CreatedAt:    time.Now(),
	}
	if err := s.accounts.Upsert(ctx, account); err != nil {
		return "", apperr.DatabaseError("store connected account", err)
	}

	logger.WithAccount(email).Info("mailbox connected")
	return email, nil
}

// ListAccounts returns all connected accounts.
func (s *OAuthService) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	return s.accounts.ListAll(ctx)
}

// Disconnect removes a connected account. The revocation at the provider
// side is left to the mailbox owner.
func (s *OAuthService) Disconnect(ctx context.Context, userEmail string) error {
	if userEmail == "" {
		return apperr.MissingField("email")
	}
	if err := s.accounts.Delete(ctx, userEmail); err != nil {
		return apperr.DatabaseError(fmt.Sprintf("disconnect %s", userEmail), err)
	}
	logger.WithAccount(userEmail).Info("mailbox disconnected")
	return nil
}

func (s *OAuthService) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Now().Before(expiry)
}

func (s *OAuthService) pruneLocked(now time.Time) {
	for state, expiry := range s.states {
		if now.After(expiry) {
			delete(s.states, state)
		}
	}
}
