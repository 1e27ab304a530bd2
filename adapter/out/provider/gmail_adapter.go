// Package provider implements mail provider adapters.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/ioa2205/email-support-agent/adapter/out/provider/gmail"
	"github.com/ioa2205/email-support-agent/core/domain"
	"github.com/ioa2205/email-support-agent/core/port/out"
	"github.com/ioa2205/email-support-agent/pkg/logger"
)

// GmailConfig holds Gmail OAuth configuration.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GmailAdapter implements out.MailProvider and out.OAuthProvider for
// Gmail. All mailbox calls go through a shared circuit breaker so a
// degraded Gmail API fails fast instead of stalling every poll cycle.
type GmailAdapter struct {
	config *oauth2.Config
	cb     *gobreaker.CircuitBreaker
}

// NewGmailAdapter creates a new Gmail adapter.
func NewGmailAdapter(cfg *GmailConfig) *GmailAdapter {
	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			gmailapi.GmailModifyScope,
			gmailapi.GmailSendScope,
		},
		Endpoint: google.Endpoint,
	}

	cbSettings := gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker %s: state changed from %s to %s", name, from.String(), to.String())
		},
	}

	return &GmailAdapter{
		config: config,
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
	}
}

// AuthURL returns the consent page URL for the given CSRF state.
func (a *GmailAdapter) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens.
func (a *GmailAdapter) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}
	return token, nil
}

// FetchUserEmail resolves the mailbox address the token grants access to.
func (a *GmailAdapter) FetchUserEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	mailbox, err := gmail.NewMailbox(ctx, token, a.config)
	if err != nil {
		return "", err
	}
	return mailbox.Email(), nil
}

// RefreshToken exchanges an expired token for a fresh one.
func (a *GmailAdapter) RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	src := a.config.TokenSource(ctx, token)
	newToken, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return newToken, nil
}

// Open builds a circuit-breaker-protected Mailbox bound to the token.
func (a *GmailAdapter) Open(ctx context.Context, token *oauth2.Token) (out.Mailbox, error) {
	mailbox, err := gmail.NewMailbox(ctx, token, a.config)
	if err != nil {
		return nil, err
	}
	return &breakerMailbox{inner: mailbox, cb: a.cb}, nil
}

// CircuitOpen reports whether mailbox calls are currently failing fast.
func (a *GmailAdapter) CircuitOpen() bool {
	return a.cb.State() == gobreaker.StateOpen
}

// breakerMailbox routes every mailbox call through the circuit breaker.
type breakerMailbox struct {
	inner *gmail.Mailbox
	cb    *gobreaker.CircuitBreaker
}

func (m *breakerMailbox) ListUnread(ctx context.Context) ([]out.MessageRef, error) {
	var refs []out.MessageRef
	err := m.execute(func() error {
		var err error
		refs, err = m.inner.ListUnread(ctx)
		return err
	})
	return refs, err
}

func (m *breakerMailbox) GetMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	var msg *domain.Message
	err := m.execute(func() error {
		var err error
		msg, err = m.inner.GetMessage(ctx, messageID)
		return err
	})
	return msg, err
}

func (m *breakerMailbox) SendReply(ctx context.Context, req *out.ReplyRequest) error {
	return m.execute(func() error {
		return m.inner.SendReply(ctx, req)
	})
}

func (m *breakerMailbox) MarkRead(ctx context.Context, messageID string) error {
	return m.execute(func() error {
		return m.inner.MarkRead(ctx, messageID)
	})
}

// execute runs fn through the circuit breaker. Server-side failures count
// toward tripping it; client errors (auth, not found) do not.
func (m *breakerMailbox) execute(fn func() error) error {
	_, err := m.cb.Execute(func() (interface{}, error) {
		if err := fn(); err != nil {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) {
				switch apiErr.Code {
				case 500, 502, 503, 429:
					return nil, err
				default:
					return nil, &nonCircuitError{err: err}
				}
			}
			return nil, err
		}
		return nil, nil
	})

	if nce, ok := err.(*nonCircuitError); ok {
		return nce.err
	}
	return err
}

// nonCircuitError wraps errors that should not trip the circuit breaker.
type nonCircuitError struct {
	err error
}

func (e *nonCircuitError) Error() string {
	return e.err.Error()
}

var (
	_ out.MailProvider  = (*GmailAdapter)(nil)
	_ out.OAuthProvider = (*GmailAdapter)(nil)
	_ out.Mailbox       = (*breakerMailbox)(nil)
)
