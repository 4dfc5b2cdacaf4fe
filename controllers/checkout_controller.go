package controllers

import (
	"net/http"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"
	"github.com/lawaid/soulsystem-backend/models"
	"github.com/lawaid/soulsystem-backend/services"

	"github.com/gin-gonic/gin"
)

// CheckoutController handles HTTP requests that open payment sessions.
type CheckoutController struct {
	checkoutService services.CheckoutService
}

// NewCheckoutController creates a new CheckoutController.
func NewCheckoutController(checkoutService services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// CreateCheckoutSession handles POST /create-checkout-session.
func (cc *CheckoutController) CreateCheckoutSession(ctx *gin.Context) {
	var req models.AdHocCheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(ctx, apperrors.Wrap(apperrors.ErrMissingField, err))
		return
	}

	resp, err := cc.checkoutService.CreateAdHocCheckoutSession(ctx.Request.Context(), req.Name, req.Email, req.Amount)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"url": resp.URL})
}

// CreateCheckoutSessionFromOrder handles POST /create-checkout-session-from-order.
func (cc *CheckoutController) CreateCheckoutSessionFromOrder(ctx *gin.Context) {
	var req models.CheckoutFromOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(ctx, apperrors.Wrap(apperrors.ErrMissingField, err))
		return
	}

	resp, err := cc.checkoutService.CreateCheckoutSession(ctx.Request.Context(), req.OrderID, req.Email)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
