package services

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"
	"github.com/lawaid/soulsystem-backend/models"
	"github.com/lawaid/soulsystem-backend/repository"

	"go.uber.org/zap"
)

// PaymentService confirms completed checkout sessions and keeps the
// Payment Records.
type PaymentService interface {
	VerifyPayment(ctx context.Context, sessionID string) (*models.Donation, error)
	ListPayments(ctx context.Context) ([]models.Donation, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentServiceImpl struct {
	registry  *repository.Registry
	processor PaymentProcessor
	webhooks  WebhookParser
	minter    *SoulMarkMinter
	notifier  *Notifier
	now       Clock
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService. webhooks may be nil when
// webhook delivery is not configured.
func NewPaymentService(
	registry *repository.Registry,
	processor PaymentProcessor,
	webhooks WebhookParser,
	minter *SoulMarkMinter,
	notifier *Notifier,
	now Clock,
	logger *zap.Logger,
) PaymentService {
	if now == nil {
		now = SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &paymentServiceImpl{
		registry:  registry,
		processor: processor,
		webhooks:  webhooks,
		minter:    minter,
		notifier:  notifier,
		now:       now,
		logger:    logger,
	}
}

// VerifyPayment records a paid session exactly once. Repeated calls for the
// same session return the stored record without minting again.
func (s *paymentServiceImpl) VerifyPayment(ctx context.Context, sessionID string) (*models.Donation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.ErrMissingField
	}

	sess, err := s.processor.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.From(err)
	}
	if !sess.Paid {
		s.logger.Info("Payment not completed", zap.String("session_id", sessionID))
		return nil, apperrors.ErrPaymentIncomplete
	}

	email := sess.CustomerEmail
	if email == "" {
		email = sess.Metadata[metadataEmail]
	}
	name := sess.Metadata[metadataName]
	if name == "" {
		name = models.DefaultPayerName
	}
	orderID := sess.Metadata[metadataOrderID]
	verifiedAt := s.now().UTC()

	var record models.Donation
	created := false
	err = s.registry.Update(ctx, func(doc *models.Registry) error {
		if existing := doc.FindDonation(sessionID); existing != nil {
			record = *existing
			created = false
			return repository.ErrNoChange
		}

		mark, err := s.minter.Mint(email, verifiedAt)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternal, err)
		}

		record = models.Donation{
			ID:        sessionID,
			Name:      name,
			Email:     email,
			Amount:    sess.AmountTotal,
			Timestamp: verifiedAt,
			SoulMark:  mark,
		}
		if orderID != "" {
			id := orderID
			record.OrderID = &id
			if order := doc.FindOrder(orderID); order != nil {
				order.Status = models.OrderStatusPaid
				order.SoulMark = &mark
				if order.StripeSessionID == nil {
					sid := sessionID
					order.StripeSessionID = &sid
				}
			}
		}
		doc.Donations = append(doc.Donations, record)
		created = true
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record payment", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	if !created {
		s.logger.Info("Payment already verified", zap.String("session_id", sessionID))
		return &record, nil
	}

	s.logger.Info("Payment verified",
		zap.String("session_id", sessionID),
		zap.String("order_id", orderID),
		zap.Int64("amount", record.Amount),
	)
	s.notifier.Notify(ctx, models.RegistryEvent{
		Type:      models.EventPaymentVerified,
		OrderID:   orderID,
		SessionID: sessionID,
		Email:     email,
		Amount:    record.Amount,
		Currency:  currencyUSD,
	})
	return &record, nil
}

// ListPayments returns every Payment Record in insertion order.
func (s *paymentServiceImpl) ListPayments(ctx context.Context) ([]models.Donation, error) {
	var out []models.Donation
	err := s.registry.View(ctx, func(doc *models.Registry) error {
		out = append([]models.Donation{}, doc.Donations...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// HandleWebhook verifies a processor notification and runs the same
// verification the client-side return triggers. Sessions that are still
// awaiting asynchronous payment are acknowledged and left for a later event.
func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhooks == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidEvent, "Webhook endpoint not configured")
	}
	event, err := s.webhooks.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Rejected webhook", zap.Error(err))
		return apperrors.Wrap(apperrors.ErrInvalidEvent, err)
	}
	if event.SessionID == "" {
		s.logger.Debug("Ignoring webhook event", zap.String("event_id", event.ID), zap.String("event_type", event.Type))
		return nil
	}

	_, err = s.VerifyPayment(ctx, event.SessionID)
	if errors.Is(err, apperrors.ErrPaymentIncomplete) {
		s.logger.Info("Webhook session not yet paid", zap.String("session_id", event.SessionID))
		return nil
	}
	return err
}
