package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
	"go.uber.org/zap"
)

const currencyUSD = "usd"

// StripeService talks to Stripe Checkout. Every call is bounded by the
// configured timeout and errors come back classified.
type StripeService struct {
	api        *client.API
	webhookKey string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewStripeService(secretKey, webhookKey string, timeout time.Duration, logger *zap.Logger) *StripeService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	return &StripeService{
		api:        client.New(secretKey, stripe.NewBackends(httpClient)),
		webhookKey: webhookKey,
		timeout:    timeout,
		logger:     logger,
	}
}

// CreateCheckoutSession creates a hosted single-payment Checkout Session.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			product.Description = stripe.String(item.Description)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currencyUSD),
				ProductData: product,
				UnitAmount:  stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		s.logger.Warn("Stripe checkout session creation failed", zap.Error(err))
		return nil, classifyStripeError(err)
	}
	return toCheckoutSession(sess), nil
}

// GetCheckoutSession retrieves a Checkout Session by ID.
func (s *StripeService) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.Get(id, params)
	if err != nil {
		s.logger.Warn("Stripe checkout session lookup failed", zap.String("session_id", id), zap.Error(err))
		return nil, classifyStripeError(err)
	}
	return toCheckoutSession(sess), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (s *StripeService) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if s.webhookKey == "" {
		return nil, errors.New("webhook secret not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookKey, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Type == stripe.EventTypeCheckoutSessionCompleted || event.Type == stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.SessionID = sess.ID
	}
	return out, nil
}

func toCheckoutSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            sess.ID,
		URL:           sess.URL,
		Paid:          sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   sess.AmountTotal,
		CustomerEmail: sess.CustomerEmail,
		Metadata:      sess.Metadata,
	}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		out.CustomerEmail = sess.CustomerDetails.Email
	}
	return out
}

// classifyStripeError separates "Stripe answered with a failure" from
// "Stripe could not be reached".
func classifyStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound:
			return apperrors.Wrap(apperrors.ErrSessionNotFound, err)
		case stripeErr.HTTPStatusCode == http.StatusTooManyRequests || stripeErr.HTTPStatusCode >= http.StatusInternalServerError:
			return apperrors.Wrap(apperrors.ErrTransientNetwork, err)
		}
		msg := stripeErr.Msg
		if msg == "" {
			msg = apperrors.ErrUpstream.Message
		}
		return apperrors.Wrap(apperrors.WithMessage(apperrors.ErrUpstream, msg), err)
	}
	return apperrors.Wrap(apperrors.ErrTransientNetwork, err)
}
