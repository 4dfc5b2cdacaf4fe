package services

import (
	"context"
	"math"
	"strings"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"
	"github.com/lawaid/soulsystem-backend/models"
	"github.com/lawaid/soulsystem-backend/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// OrderService turns carts into persisted orders.
type OrderService interface {
	CreateOrder(ctx context.Context, cart []models.LineItem, app, email string) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

type orderServiceImpl struct {
	registry *repository.Registry
	notifier *Notifier
	newID    IDGenerator
	now      Clock
	validate *validator.Validate
	logger   *zap.Logger
}

// NewOrderService creates a new OrderService. Nil newID and now fall back to
// NewUUID and SystemClock.
func NewOrderService(registry *repository.Registry, notifier *Notifier, newID IDGenerator, now Clock, logger *zap.Logger) OrderService {
	if newID == nil {
		newID = NewUUID
	}
	if now == nil {
		now = SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &orderServiceImpl{
		registry: registry,
		notifier: notifier,
		newID:    newID,
		now:      now,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateOrder validates the cart, computes its total and stores a
// pending_payment order.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, cart []models.LineItem, app, email string) (*models.Order, error) {
	total, err := s.cartTotal(cart)
	if err != nil {
		return nil, err
	}

	app = strings.TrimSpace(app)
	if app == "" {
		app = models.DefaultApp
	}
	order := models.Order{
		ID:        s.newID(),
		App:       app,
		Items:     append([]models.LineItem(nil), cart...),
		Mode:      models.BillingModePayment,
		Total:     total,
		Status:    models.OrderStatusPendingPayment,
		CreatedAt: s.now().UTC(),
	}
	if email = strings.TrimSpace(email); email != "" {
		order.Email = &email
	}

	err = s.registry.Update(ctx, func(doc *models.Registry) error {
		doc.Orders = append(doc.Orders, order)
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to persist order", zap.String("order_id", order.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("app", order.App),
		zap.Int64("total", order.Total),
	)
	s.notifier.Notify(ctx, models.RegistryEvent{
		Type:     models.EventOrderCreated,
		OrderID:  order.ID,
		Email:    email,
		Amount:   order.Total,
		Currency: currencyUSD,
	})
	return &order, nil
}

// GetOrder returns a stored order.
func (s *orderServiceImpl) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ErrMissingField
	}

	var order models.Order
	err := s.registry.View(ctx, func(doc *models.Registry) error {
		found := doc.FindOrder(id)
		if found == nil {
			return apperrors.ErrOrderNotFound
		}
		order = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// cartTotal sums price*quantity in minor units, rejecting empty carts,
// malformed items and totals that overflow int64.
func (s *orderServiceImpl) cartTotal(cart []models.LineItem) (int64, error) {
	if len(cart) == 0 {
		return 0, apperrors.ErrInvalidCart
	}

	var total int64
	for i := range cart {
		item := cart[i]
		if err := s.validate.Struct(item); err != nil {
			return 0, apperrors.Wrap(apperrors.ErrInvalidCart, err)
		}
		if item.Price > 0 && item.Quantity > math.MaxInt64/item.Price {
			return 0, apperrors.ErrInvalidCart
		}
		line := item.Price * item.Quantity
		if total > math.MaxInt64-line {
			return 0, apperrors.ErrInvalidCart
		}
		total += line
	}
	return total, nil
}
