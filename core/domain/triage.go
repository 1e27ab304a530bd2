package domain

import "time"

// Importance bounds for triaged mail.
const (
	ImportanceMin = 1
	ImportanceMax = 5
)

// UnhandledEmail is an append-only record of a message the agent could not
// resolve automatically. A human works through these; the agent never reads
// them back.
type UnhandledEmail struct {
	ID           int64     `json:"id"`
	ReceivedFrom string    `json:"received_from"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	Category     Category  `json:"category"`
	Importance   int       `json:"importance"`
	Status       string    `json:"status"`
	ReceivedAt   time.Time `json:"received_at"`
}

// InvalidRefundAttempt logs a repeated refund request citing an order id
// that still does not resolve. Written once per failed attempt chain so the
// sender never gets stuck in an automated reply loop.
type InvalidRefundAttempt struct {
	ID             int64     `json:"id"`
	CustomerEmail  string    `json:"customer_email"`
	InvalidOrderID string    `json:"invalid_order_id_attempted"`
	FullEmailBody  string    `json:"full_email_body"`
	LoggedAt       time.Time `json:"logged_at"`
}
