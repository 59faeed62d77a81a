package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/emailcraft/billing-backend/internal/dto"
	"github.com/emailcraft/billing-backend/internal/gateway"
	"github.com/emailcraft/billing-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// WebhookVerifier checks a delivery signature against the raw payload.
// *gateway.Client satisfies it.
type WebhookVerifier interface {
	VerifyWebhookSignature(signature string, payload []byte) bool
}

type WebhookHandler struct {
	paymentService *services.PaymentService
	verifier       WebhookVerifier
}

func NewWebhookHandler(paymentService *services.PaymentService, verifier WebhookVerifier) *WebhookHandler {
	return &WebhookHandler{paymentService: paymentService, verifier: verifier}
}

// HandleDodo processes inbound gateway deliveries. The signature is verified
// over the raw body before any parsing; unverified deliveries are rejected.
// Unknown event types are acknowledged so the gateway stops redelivering them.
func (h *WebhookHandler) HandleDodo(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Dodo-Signature")

	if !h.verifier.VerifyWebhookSignature(signature, payload) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook signature",
		})
	}

	var event gateway.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	if err := h.paymentService.HandleGatewayEvent(&event); err != nil {
		if errors.Is(err, services.ErrIntentNotFound) {
			// An intent we never recorded; acknowledge so the gateway
			// does not retry forever.
			slog.Warn("webhook for unknown payment intent", "intent_id", event.Data.ID, "event_type", event.Type)
			return c.JSON(fiber.Map{"received": true})
		}
		slog.Error("webhook processing failed", "event_type", event.Type, "intent_id", event.Data.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "event_type", event.Type, "intent_id", event.Data.ID)
	return c.JSON(fiber.Map{"received": true})
}
