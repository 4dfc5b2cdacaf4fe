package services

import "context"

// CheckoutLineItem is one line on a hosted checkout page.
type CheckoutLineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// CheckoutSessionRequest describes a single-payment hosted checkout.
type CheckoutSessionRequest struct {
	Items         []CheckoutLineItem
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutSession is the processor's view of a checkout.
type CheckoutSession struct {
	ID            string
	URL           string
	Paid          bool
	AmountTotal   int64
	CustomerEmail string
	Metadata      map[string]string
}

// PaymentProcessor is the external payment processor boundary. Errors are
// already classified as *errors.Error (not found, upstream, transient).
type PaymentProcessor interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
}

// WebhookEvent is a verified processor notification.
type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
}

// WebhookParser verifies and decodes processor webhooks.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// Session metadata keys written at checkout and read back at verification.
const (
	metadataOrderID = "orderId"
	metadataName    = "name"
	metadataEmail   = "email"
	metadataApp     = "app"
)
