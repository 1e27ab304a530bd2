package out

import (
	"context"
	"time"

	"github.com/ioa2205/email-support-agent/core/domain"
)

// AccountRepository persists connected mailbox accounts. Tokens cross this
// boundary in plaintext; implementations store them encrypted.
type AccountRepository interface {
	ListAll(ctx context.Context) ([]*domain.Account, error)
	GetByEmail(ctx context.Context, userEmail string) (*domain.Account, error)

	// Upsert creates the account or, if the email is already connected,
	// replaces its tokens.
	Upsert(ctx context.Context, account *domain.Account) error

	// UpdateTokens persists a refreshed access token and expiry.
	UpdateTokens(ctx context.Context, userEmail, accessToken string, expiry time.Time) error

	Delete(ctx context.Context, userEmail string) error
}

// OrderRepository looks up and transitions customer orders.
type OrderRepository interface {
	// GetByID returns (nil, nil) when no order has the id; an unknown
	// order is a workflow branch, not an error.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}

// TriageRepository records mail the agent hands off to humans.
type TriageRepository interface {
	SaveUnhandled(ctx context.Context, email *domain.UnhandledEmail) error
	SaveInvalidRefundAttempt(ctx context.Context, attempt *domain.InvalidRefundAttempt) error
}
