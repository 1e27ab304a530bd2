package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ioa2205/email-support-agent/core/domain"
	"github.com/ioa2205/email-support-agent/core/port/out"
)

// TriageAdapter implements out.TriageRepository using PostgreSQL. Both
// tables are append-only from the agent's point of view.
type TriageAdapter struct {
	db *sqlx.DB
}

// NewTriageAdapter creates a new TriageAdapter.
func NewTriageAdapter(db *sqlx.DB) *TriageAdapter {
	return &TriageAdapter{db: db}
}

// SaveUnhandled records a message handed off to a human.
func (a *TriageAdapter) SaveUnhandled(ctx context.Context, email *domain.UnhandledEmail) error {
	status := email.Status
	if status == "" {
		status = "pending"
	}

	query := `
		INSERT INTO unhandled_emails (received_from, subject, body, category, importance, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return a.db.QueryRowContext(ctx, query,
		email.ReceivedFrom,
		email.Subject,
		email.Body,
		string(email.Category),
		email.Importance,
		status,
	).Scan(&email.ID)
}

// SaveInvalidRefundAttempt records a repeated refund request with an order
// id that does not resolve.
func (a *TriageAdapter) SaveInvalidRefundAttempt(ctx context.Context, attempt *domain.InvalidRefundAttempt) error {
	query := `
		INSERT INTO not_found_refund_requests (customer_email, invalid_order_id_attempted, full_email_body)
		VALUES ($1, $2, $3)
		RETURNING id`

	return a.db.QueryRowContext(ctx, query,
		attempt.CustomerEmail,
		attempt.InvalidOrderID,
		attempt.FullEmailBody,
	).Scan(&attempt.ID)
}

var _ out.TriageRepository = (*TriageAdapter)(nil)
