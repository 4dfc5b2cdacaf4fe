package models

import "time"

// OrderStatus is the payment lifecycle state of an Order.
type OrderStatus string

const (
	OrderStatusPendingPayment  OrderStatus = "pending_payment"
	OrderStatusCheckoutCreated OrderStatus = "checkout_created"
	OrderStatusPaid            OrderStatus = "paid"
)

// BillingModePayment is the only billing mode; subscriptions are not supported.
const BillingModePayment = "payment"

// DefaultApp tags orders created without an explicit application.
const DefaultApp = "lawaid"

// LineItem is one cart entry. Price is in minor currency units.
type LineItem struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price" validate:"gte=0"`
	Quantity    int64  `json:"quantity" validate:"gt=0"`
}

// Order is a cart turned into a durable record with a computed total.
type Order struct {
	ID              string      `json:"id"`
	App             string      `json:"app"`
	Email           *string     `json:"email"`
	Items           []LineItem  `json:"items"`
	Mode            string      `json:"mode"`
	Total           int64       `json:"total"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	StripeSessionID *string     `json:"stripeSessionId"`
	SoulMark        *string     `json:"soulmark"`
}

// CreateOrderRequest is the payload for POST /create-order.
type CreateOrderRequest struct {
	Cart  []LineItem `json:"cart"`
	App   string     `json:"app"`
	Email string     `json:"email"`
}

// CheckoutFromOrderRequest is the payload for POST /create-checkout-session-from-order.
type CheckoutFromOrderRequest struct {
	OrderID string `json:"orderId"`
	Email   string `json:"email"`
}

// AdHocCheckoutRequest is the payload for POST /create-checkout-session.
type AdHocCheckoutRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Amount int64  `json:"amount"`
}

// CheckoutResponse is returned after a checkout session is created.
type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId,omitempty"`
}
