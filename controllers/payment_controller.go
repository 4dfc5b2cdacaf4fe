package controllers

import (
	"io"
	"net/http"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"
	"github.com/lawaid/soulsystem-backend/services"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 64 << 10

// PaymentController handles payment verification and listing.
type PaymentController struct {
	paymentService services.PaymentService
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// VerifyDonation handles GET /verify-donation/:id. Safe to repeat.
func (pc *PaymentController) VerifyDonation(ctx *gin.Context) {
	record, err := pc.paymentService.VerifyPayment(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, record)
}

// ListDonations handles GET /donations.
func (pc *PaymentController) ListDonations(ctx *gin.Context) {
	records, err := pc.paymentService.ListPayments(ctx.Request.Context())
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, records)
}

// StripeWebhook handles POST /stripe/webhook.
func (pc *PaymentController) StripeWebhook(ctx *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		apperrors.Respond(ctx, apperrors.Wrap(apperrors.ErrInvalidEvent, err))
		return
	}

	if err := pc.paymentService.HandleWebhook(ctx.Request.Context(), payload, ctx.GetHeader("Stripe-Signature")); err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"received": true})
}
