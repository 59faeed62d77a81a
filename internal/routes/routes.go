package routes

import (
	"time"

	"github.com/emailcraft/billing-backend/internal/config"
	"github.com/emailcraft/billing-backend/internal/handlers"
	"github.com/emailcraft/billing-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	paymentHandler *handlers.PaymentHandler,
	webhookHandler *handlers.WebhookHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 100 req/15min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               100,
		Expiration:        15 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	payments := api.Group("/payments")
	payments.Get("/plans", paymentHandler.GetPlans)

	// Bearer-protected lifecycle endpoints
	payments.Post("/create-intent", middleware.JWTProtected(cfg), paymentHandler.CreateIntent)
	payments.Post("/confirm/:paymentIntentId", middleware.JWTProtected(cfg), paymentHandler.ConfirmPayment)
	payments.Get("/subscription", middleware.JWTProtected(cfg), paymentHandler.GetSubscription)
	payments.Post("/cancel-subscription", middleware.JWTProtected(cfg), paymentHandler.CancelSubscription)
	payments.Get("/history", middleware.JWTProtected(cfg), paymentHandler.GetPaymentHistory)

	// Gateway webhooks authenticate by signature, not JWT
	webhooks := api.Group("/webhooks")
	webhooks.Post("/dodo", webhookHandler.HandleDodo)
}
