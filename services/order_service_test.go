package services_test

import (
	"context"
	"errors"
	"math"
	"testing"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"
	"github.com/lawaid/soulsystem-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_ComputesTotal(t *testing.T) {
	tests := []struct {
		name string
		cart []models.LineItem
		want int64
	}{
		{
			name: "single consult",
			cart: []models.LineItem{{Name: "Consult", Price: 5000, Quantity: 1}},
			want: 5000,
		},
		{
			name: "several items",
			cart: []models.LineItem{
				{Name: "Filing", Price: 1999, Quantity: 3},
				{Name: "Review", Description: "Document review", Price: 500, Quantity: 2},
			},
			want: 6997,
		},
		{
			name: "free item",
			cart: []models.LineItem{{Name: "Intro call", Price: 0, Quantity: 1}},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			order, err := env.orders.CreateOrder(context.Background(), tt.cart, "", "")
			require.NoError(t, err)

			assert.Equal(t, tt.want, order.Total)
			assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
			assert.Equal(t, models.BillingModePayment, order.Mode)
			assert.Equal(t, models.DefaultApp, order.App)
			assert.Equal(t, "order-1", order.ID)
			assert.Equal(t, fixedTime, order.CreatedAt)
			assert.Nil(t, order.Email)
			assert.Nil(t, order.StripeSessionID)
			assert.Nil(t, order.SoulMark)
		})
	}
}

func TestCreateOrder_RejectsInvalidCarts(t *testing.T) {
	carts := map[string][]models.LineItem{
		"empty":          {},
		"zero quantity":  {{Name: "Consult", Price: 5000, Quantity: 0}},
		"negative price": {{Name: "Consult", Price: -1, Quantity: 1}},
		"missing name":   {{Price: 100, Quantity: 1}},
		"line overflow":  {{Name: "Huge", Price: math.MaxInt64, Quantity: 2}},
		"sum overflow": {
			{Name: "A", Price: math.MaxInt64, Quantity: 1},
			{Name: "B", Price: 1, Quantity: 1},
		},
	}

	for name, cart := range carts {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)

			order, err := env.orders.CreateOrder(context.Background(), cart, "lawaid", "a@x.com")

			assert.Nil(t, order)
			assert.ErrorIs(t, err, apperrors.ErrInvalidCart)
			assert.Equal(t, 0, env.store.Saves())
		})
	}
}

func TestCreateOrder_PersistsAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	cart := []models.LineItem{{Name: "Consult", Price: 5000, Quantity: 1}}

	created, err := env.orders.CreateOrder(context.Background(), cart, "soulregistry", "  a@x.com ")
	require.NoError(t, err)
	require.NotNil(t, created.Email)
	assert.Equal(t, "a@x.com", *created.Email)
	assert.Equal(t, "soulregistry", created.App)

	loaded, err := env.orders.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, loaded)
	assert.Equal(t, 1, env.published())
}

func TestCreateOrder_CopiesCart(t *testing.T) {
	env := newTestEnv(t)
	cart := []models.LineItem{{Name: "Consult", Price: 5000, Quantity: 1}}

	order, err := env.orders.CreateOrder(context.Background(), cart, "", "")
	require.NoError(t, err)
	cart[0].Price = 1

	loaded, err := env.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), loaded.Items[0].Price)
	assert.Equal(t, int64(5000), loaded.Total)
}

func TestGetOrder_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orders.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)

	_, err = env.orders.GetOrder(context.Background(), " ")
	assert.ErrorIs(t, err, apperrors.ErrMissingField)
}

func TestCreateOrder_StorageFault(t *testing.T) {
	env := newTestEnv(t)
	env.store.FailSave = errors.New("permission denied")

	_, err := env.orders.CreateOrder(context.Background(), []models.LineItem{{Name: "Consult", Price: 5000, Quantity: 1}}, "", "")

	assert.ErrorIs(t, err, apperrors.ErrStorageFault)
	assert.Equal(t, 0, env.published())
}
