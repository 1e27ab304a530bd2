package domain

import "time"

type OrderStatus string

const (
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusRefundRequested OrderStatus = "refund_requested"
)

// Order is a customer order record. Orders are never created by this
// system; the refund handler performs the single forward status transition
// completed -> refund_requested.
type Order struct {
	OrderID       string      `json:"order_id"`
	CustomerEmail string      `json:"customer_email"`
	OrderDate     time.Time   `json:"order_date"`
	Amount        float64     `json:"amount"`
	Status        OrderStatus `json:"status"`
}
