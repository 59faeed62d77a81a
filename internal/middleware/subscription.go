package middleware

import (
	"log/slog"

	"github.com/emailcraft/billing-backend/internal/dto"
	"github.com/emailcraft/billing-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// RequireActiveSubscription gates feature routes on the access-check
// predicate: status active and period not yet ended. The check runs fresh on
// every request; an active row whose period has lapsed is treated as expired
// right here, without any background expiry job. Must be mounted after
// JWTProtected.
func RequireActiveSubscription(paymentService *services.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		active, err := paymentService.HasActiveSubscription(userID)
		if err != nil {
			slog.Error("subscription access check failed", "user_id", userID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
		if !active {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Active subscription required",
			})
		}
		return c.Next()
	}
}
