package models

import "time"

// DefaultPayerName is recorded when the session carries no payer name.
const DefaultPayerName = "Anonymous"

// Donation is the Payment Record for one verified checkout session.
// ID equals the processor's session reference and is the idempotency key.
type Donation struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Amount           int64     `json:"amount"` // minor units, as reported by the processor
	Timestamp        time.Time `json:"timestamp"`
	SoulMark         string    `json:"soulmark"`
	UsernameResolved bool      `json:"usernameResolved"`
	Username         *string   `json:"username"`
	OrderID          *string   `json:"orderId"`
}
