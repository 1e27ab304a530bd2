package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ioa2205/email-support-agent/core/domain"
	"github.com/ioa2205/email-support-agent/core/port/out"
)

type orderEntity struct {
	OrderID       string    `db:"order_id"`
	CustomerEmail string    `db:"customer_email"`
	OrderDate     time.Time `db:"order_date"`
	Amount        float64   `db:"amount"`
	Status        string    `db:"status"`
}

// OrderAdapter implements out.OrderRepository using PostgreSQL.
type OrderAdapter struct {
	db *sqlx.DB
}

// NewOrderAdapter creates a new OrderAdapter.
func NewOrderAdapter(db *sqlx.DB) *OrderAdapter {
	return &OrderAdapter{db: db}
}

// GetByID returns the order with the given id, or (nil, nil) when no such
// order exists.
func (a *OrderAdapter) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var entity orderEntity
	query := `
		SELECT order_id, customer_email, order_date, amount, status
		FROM orders
		WHERE order_id = $1`

	if err := a.db.GetContext(ctx, &entity, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &domain.Order{
		OrderID:       entity.OrderID,
		CustomerEmail: entity.CustomerEmail,
		OrderDate:     entity.OrderDate,
		Amount:        entity.Amount,
		Status:        domain.OrderStatus(entity.Status),
	}, nil
}

// UpdateStatus sets the order's status.
func (a *OrderAdapter) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = $1 WHERE order_id = $2`

	result, err := a.db.ExecContext(ctx, query, string(status), orderID)
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

var _ out.OrderRepository = (*OrderAdapter)(nil)
