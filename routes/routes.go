package routes

import (
	"net/http"

	"github.com/lawaid/soulsystem-backend/controllers"

	"github.com/gin-gonic/gin"
)

// Controllers groups the handlers mounted by RegisterRoutes.
type Controllers struct {
	Orders     *controllers.OrderController
	Checkout   *controllers.CheckoutController
	Payments   *controllers.PaymentController
	Identities *controllers.IdentityController
}

// RegisterRoutes mounts every public endpoint. The paths are fixed by the
// static frontend.
func RegisterRoutes(r *gin.Engine, c Controllers) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "OK", "service": "soulsystem"})
	})

	r.POST("/create-order", c.Orders.CreateOrder)
	r.GET("/orders/:id", c.Orders.GetOrder)

	r.POST("/create-checkout-session", c.Checkout.CreateCheckoutSession)
	r.POST("/create-checkout-session-from-order", c.Checkout.CreateCheckoutSessionFromOrder)

	r.GET("/verify-donation/:id", c.Payments.VerifyDonation)
	r.GET("/donations", c.Payments.ListDonations)
	r.POST("/stripe/webhook", c.Payments.StripeWebhook)

	r.GET("/check-username/:username", c.Identities.CheckUsername)
	r.POST("/register-username", c.Identities.RegisterUsername)
	r.GET("/identities/:username", c.Identities.GetProfile)
}
