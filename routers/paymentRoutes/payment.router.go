package paymentRoutes

import (
	controllers "lms/controllers/payment"
	"lms/middleware"
	validators "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
)

// SetupPaymentRoutes sets up checkout initiation and the gateway webhook
func SetupPaymentRoutes(app *fiber.App) {
	paymentGroup := app.Group("/payment")

	paymentGroup.Post("/checkout/course", middleware.JWTMiddleware, validators.CourseCheckout(), controllers.CourseCheckout)
	paymentGroup.Post("/checkout/voucher", middleware.JWTMiddleware, validators.VoucherCheckout(), controllers.VoucherCheckout)

	// Gateway-to-server notification; authenticated by the gateway's
	// signature, not a user JWT
	paymentGroup.Post("/webhook", validators.Webhook(), controllers.Webhook)
}
