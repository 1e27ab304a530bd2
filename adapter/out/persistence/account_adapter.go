// Package persistence provides database adapters.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ioa2205/email-support-agent/core/domain"
	"github.com/ioa2205/email-support-agent/core/port/out"
	"github.com/ioa2205/email-support-agent/pkg/crypto"
	"github.com/ioa2205/email-support-agent/pkg/logger"
)

type accountEntity struct {
	ID           int64     `db:"id"`
	UserEmail    string    `db:"user_email"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	TokenExpiry  time.Time `db:"token_expiry"`
	CreatedAt    time.Time `db:"created_at"`
}

// AccountAdapter implements out.AccountRepository using PostgreSQL.
// Tokens are encrypted at rest; a row whose tokens cannot be decrypted is
// skipped or surfaced as an error, never a plaintext passthrough.
type AccountAdapter struct {
	db        *sqlx.DB
	encryptor *crypto.Encryptor
}

// NewAccountAdapter creates a new AccountAdapter.
func NewAccountAdapter(db *sqlx.DB, encryptor *crypto.Encryptor) *AccountAdapter {
	return &AccountAdapter{db: db, encryptor: encryptor}
}

func (a *AccountAdapter) toDomain(entity *accountEntity) (*domain.Account, error) {
	accessToken, err := a.encryptor.Decrypt(entity.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token for %s: %w", entity.UserEmail, err)
	}
	refreshToken, err := a.encryptor.Decrypt(entity.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token for %s: %w", entity.UserEmail, err)
	}

	return &domain.Account{
		ID:           entity.ID,
		UserEmail:    entity.UserEmail,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenExpiry:  entity.TokenExpiry,
		CreatedAt:    entity.CreatedAt,
	}, nil
}

// ListAll returns every connected account. A row whose tokens cannot be
// decrypted is skipped and logged, so one corrupted row never takes the
// remaining accounts out of rotation.
func (a *AccountAdapter) ListAll(ctx context.Context) ([]*domain.Account, error) {
	var entities []*accountEntity
	query := `
		SELECT id, user_email, access_token, refresh_token, token_expiry, created_at
		FROM connected_accounts
		ORDER BY created_at`

	if err := a.db.SelectContext(ctx, &entities, query); err != nil {
		return nil, err
	}

	return a.decodeAll(entities), nil
}

func (a *AccountAdapter) decodeAll(entities []*accountEntity) []*domain.Account {
	accounts := make([]*domain.Account, 0, len(entities))
	for _, entity := range entities {
		account, err := a.toDomain(entity)
		if err != nil {
			logger.Warn("skipping account %s until its tokens are re-issued: %v", entity.UserEmail, err)
			continue
		}
		accounts = append(accounts, account)
	}
	return accounts
}

// GetByEmail returns the account connected for userEmail.
func (a *AccountAdapter) GetByEmail(ctx context.Context, userEmail string) (*domain.Account, error) {
	var entity accountEntity
	query := `
		SELECT id, user_email, access_token, refresh_token, token_expiry, created_at
		FROM connected_accounts
		WHERE user_email = $1`

	if err := a.db.GetContext(ctx, &entity, query, userEmail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return a.toDomain(&entity)
}

// Upsert creates the account or replaces its tokens if the email is
// already connected.
func (a *AccountAdapter) Upsert(ctx context.Context, account *domain.Account) error {
	accessToken, err := a.encryptor.Encrypt(account.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refreshToken, err := a.encryptor.Encrypt(account.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	query := `
		INSERT INTO connected_accounts (user_email, access_token, refresh_token, token_expiry, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_email) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    token_expiry = EXCLUDED.token_expiry
		RETURNING id`

	createdAt := account.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return a.db.QueryRowContext(ctx, query,
		account.UserEmail,
		accessToken,
		refreshToken,
		account.TokenExpiry,
		createdAt,
	).Scan(&account.ID)
}

// UpdateTokens persists a refreshed access token and expiry. The refresh
// token is left untouched.
func (a *AccountAdapter) UpdateTokens(ctx context.Context, userEmail, accessToken string, expiry time.Time) error {
	encrypted, err := a.encryptor.Encrypt(accessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	query := `
		UPDATE connected_accounts
		SET access_token = $1, token_expiry = $2
		WHERE user_email = $3`

	result, err := a.db.ExecContext(ctx, query, encrypted, expiry, userEmail)
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the account.
func (a *AccountAdapter) Delete(ctx context.Context, userEmail string) error {
	query := `DELETE FROM connected_accounts WHERE user_email = $1`
	_, err := a.db.ExecContext(ctx, query, userEmail)
	return err
}

var _ out.AccountRepository = (*AccountAdapter)(nil)
