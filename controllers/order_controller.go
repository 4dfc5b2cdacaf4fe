package controllers

import (
	"net/http"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"
	"github.com/lawaid/soulsystem-backend/models"
	"github.com/lawaid/soulsystem-backend/services"

	"github.com/gin-gonic/gin"
)

// OrderController handles HTTP requests for orders.
type OrderController struct {
	orderService services.OrderService
}

// NewOrderController creates a new OrderController.
func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder handles POST /create-order.
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	var req models.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(ctx, apperrors.Wrap(apperrors.ErrInvalidCart, err))
		return
	}

	order, err := oc.orderService.CreateOrder(ctx.Request.Context(), req.Cart, req.App, req.Email)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, order)
}

// GetOrder handles GET /orders/:id.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	order, err := oc.orderService.GetOrder(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, order)
}
