package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"
	"github.com/lawaid/soulsystem-backend/models"
	"github.com/lawaid/soulsystem-backend/repository"

	"go.uber.org/zap"
)

const (
	successPath = "/lawaid-complete.html?session_id={CHECKOUT_SESSION_ID}"
	cancelPath  = "/lawaid-review.html"

	adHocItemName = "SoulSystem Contribution"
)

// CheckoutService opens hosted payment sessions for orders and ad-hoc amounts.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, orderID, email string) (*models.CheckoutResponse, error)
	CreateAdHocCheckoutSession(ctx context.Context, name, email string, amount int64) (*models.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	registry  *repository.Registry
	processor PaymentProcessor
	notifier  *Notifier
	baseURL   string
	logger    *zap.Logger
}

// NewCheckoutService creates a new CheckoutService. baseURL is the public
// origin the processor redirects back to.
func NewCheckoutService(registry *repository.Registry, processor PaymentProcessor, notifier *Notifier, baseURL string, logger *zap.Logger) CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &checkoutServiceImpl{
		registry:  registry,
		processor: processor,
		notifier:  notifier,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// CreateCheckoutSession opens a session for an existing order and records
// the session reference on it. The order is untouched when the processor
// call fails.
func (s *checkoutServiceImpl) CreateCheckoutSession(ctx context.Context, orderID, email string) (*models.CheckoutResponse, error) {
	orderID = strings.TrimSpace(orderID)
	email = strings.TrimSpace(email)
	if orderID == "" || email == "" {
		return nil, apperrors.ErrMissingField
	}

	var order models.Order
	err := s.registry.View(ctx, func(doc *models.Registry) error {
		found := doc.FindOrder(orderID)
		if found == nil {
			return apperrors.ErrOrderNotFound
		}
		order = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusPaid {
		return nil, apperrors.ErrOrderAlreadyPaid
	}

	items := make([]CheckoutLineItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, CheckoutLineItem{
			Name:        item.Name,
			Description: item.Description,
			UnitAmount:  item.Price,
			Quantity:    item.Quantity,
		})
	}

	sess, err := s.processor.CreateCheckoutSession(ctx, &CheckoutSessionRequest{
		Items:         items,
		CustomerEmail: email,
		SuccessURL:    s.baseURL + successPath,
		CancelURL:     s.baseURL + cancelPath,
		Metadata: map[string]string{
			metadataOrderID: order.ID,
			metadataEmail:   email,
			metadataApp:     order.App,
		},
	})
	if err != nil {
		s.logger.Error("Failed to create checkout session", zap.String("order_id", orderID), zap.Error(err))
		return nil, checkoutFault(err)
	}

	err = s.registry.Update(ctx, func(doc *models.Registry) error {
		found := doc.FindOrder(orderID)
		if found == nil {
			return apperrors.ErrOrderNotFound
		}
		if found.Status == models.OrderStatusPaid {
			return apperrors.ErrOrderAlreadyPaid
		}
		sessionID := sess.ID
		found.Email = &email
		found.StripeSessionID = &sessionID
		found.Status = models.OrderStatusCheckoutCreated
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record checkout session on order",
			zap.String("order_id", orderID),
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Checkout session created", zap.String("order_id", orderID), zap.String("session_id", sess.ID))
	s.notifier.Notify(ctx, models.RegistryEvent{
		Type:      models.EventCheckoutCreated,
		OrderID:   orderID,
		SessionID: sess.ID,
		Email:     email,
		Amount:    order.Total,
		Currency:  currencyUSD,
	})
	return &models.CheckoutResponse{URL: sess.URL, SessionID: sess.ID}, nil
}

// CreateAdHocCheckoutSession opens a single-item session with no order
// behind it.
func (s *checkoutServiceImpl) CreateAdHocCheckoutSession(ctx context.Context, name, email string, amount int64) (*models.CheckoutResponse, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || amount <= 0 {
		return nil, apperrors.ErrMissingField
	}

	sess, err := s.processor.CreateCheckoutSession(ctx, &CheckoutSessionRequest{
		Items: []CheckoutLineItem{{
			Name:        adHocItemName,
			Description: fmt.Sprintf("Contribution from %s", name),
			UnitAmount:  amount,
			Quantity:    1,
		}},
		CustomerEmail: email,
		SuccessURL:    s.baseURL + successPath,
		CancelURL:     s.baseURL + cancelPath,
		Metadata: map[string]string{
			metadataName:  name,
			metadataEmail: email,
		},
	})
	if err != nil {
		s.logger.Error("Failed to create ad-hoc checkout session", zap.Error(err))
		return nil, checkoutFault(err)
	}

	s.logger.Info("Ad-hoc checkout session created", zap.String("session_id", sess.ID), zap.Int64("amount", amount))
	s.notifier.Notify(ctx, models.RegistryEvent{
		Type:      models.EventCheckoutCreated,
		SessionID: sess.ID,
		Email:     email,
		Amount:    amount,
		Currency:  currencyUSD,
	})
	return &models.CheckoutResponse{URL: sess.URL, SessionID: sess.ID}, nil
}

// checkoutFault reports processor business failures during session creation
// as server errors. Transient faults keep their retryable status.
func checkoutFault(err error) error {
	appErr := apperrors.From(err)
	if appErr.Kind == apperrors.KindUpstream {
		return apperrors.WithStatus(appErr, http.StatusInternalServerError)
	}
	return appErr
}
