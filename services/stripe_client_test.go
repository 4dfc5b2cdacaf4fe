package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
	"go.uber.org/zap"
)

func TestClassifyStripeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *apperrors.Error
	}{
		{"missing session", &stripe.Error{Code: stripe.ErrorCodeResourceMissing, HTTPStatusCode: http.StatusNotFound}, apperrors.ErrSessionNotFound},
		{"rate limited", &stripe.Error{HTTPStatusCode: http.StatusTooManyRequests}, apperrors.ErrTransientNetwork},
		{"stripe outage", &stripe.Error{HTTPStatusCode: http.StatusBadGateway}, apperrors.ErrTransientNetwork},
		{"bad request", &stripe.Error{HTTPStatusCode: http.StatusBadRequest, Msg: "Invalid email"}, apperrors.ErrUpstream},
		{"network", context.DeadlineExceeded, apperrors.ErrTransientNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyStripeError(tt.err), tt.want)
		})
	}

	upstream := apperrors.From(classifyStripeError(&stripe.Error{HTTPStatusCode: http.StatusBadRequest, Msg: "Invalid email"}))
	assert.Equal(t, "Invalid email", upstream.Message)
}

func TestToCheckoutSession(t *testing.T) {
	sess := toCheckoutSession(&stripe.CheckoutSession{
		ID:              "cs_1",
		URL:             "https://checkout.stripe.com/c/pay/cs_1",
		PaymentStatus:   stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:     5000,
		CustomerEmail:   "typed@x.com",
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "billing@x.com"},
		Metadata:        map[string]string{"orderId": "order-1"},
	})

	assert.True(t, sess.Paid)
	assert.Equal(t, int64(5000), sess.AmountTotal)
	assert.Equal(t, "billing@x.com", sess.CustomerEmail)
	assert.Equal(t, "order-1", sess.Metadata["orderId"])

	unpaid := toCheckoutSession(&stripe.CheckoutSession{ID: "cs_2", PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid})
	assert.False(t, unpaid.Paid)
}

func TestParseWebhook(t *testing.T) {
	svc := NewStripeService("sk_test_123", "whsec_test", time.Second, zap.NewNop())
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session"}}}`)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})
	event, err := svc.ParseWebhook(payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "cs_test_1", event.SessionID)

	_, err = svc.ParseWebhook(payload, "t=1,v1=deadbeef")
	assert.Error(t, err)

	unconfigured := NewStripeService("sk_test_123", "", time.Second, zap.NewNop())
	_, err = unconfigured.ParseWebhook(payload, signed.Header)
	assert.Error(t, err)
}
