package models

import "time"

// Event types published to SNS.
const (
	EventOrderCreated       = "order_created"
	EventCheckoutCreated    = "checkout_created"
	EventPaymentVerified    = "payment_verified"
	EventIdentityRegistered = "identity_registered"
)

// RegistryEvent is published best-effort after a registry mutation commits.
type RegistryEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
