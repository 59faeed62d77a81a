package handlers

import (
	"errors"
	"log/slog"

	"github.com/emailcraft/billing-backend/internal/dto"
	"github.com/emailcraft/billing-backend/internal/gateway"
	"github.com/emailcraft/billing-backend/internal/middleware"
	"github.com/emailcraft/billing-backend/internal/models"
	"github.com/emailcraft/billing-backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	validate       *validator.Validate
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validate:       validator.New(),
	}
}

// GetPlans is public: the pricing page renders before sign-up.
func (h *PaymentHandler) GetPlans(c *fiber.Ctx) error {
	return c.JSON(dto.PlansResponse{Plans: h.paymentService.Catalog().ListPlans()})
}

func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	var req dto.CreateIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "planId must be a known plan and billingCycle monthly or yearly",
		})
	}
	if req.Currency == "" {
		req.Currency = string(models.CurrencyUSD)
	}

	result, err := h.paymentService.CreateIntent(
		middleware.UserID(c),
		middleware.UserEmail(c),
		models.PlanID(req.PlanID),
		models.BillingCycle(req.BillingCycle),
		models.Currency(req.Currency),
	)
	if err != nil {
		return h.paymentError(c, "create payment intent", err)
	}

	return c.JSON(dto.CreateIntentResponse{
		ClientSecret:    result.ClientSecret,
		PaymentIntentID: result.PaymentIntentID,
	})
}

func (h *PaymentHandler) ConfirmPayment(c *fiber.Ctx) error {
	intentID := c.Params("paymentIntentId")

	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "paymentMethodId is required",
		})
	}

	result, err := h.paymentService.ConfirmPayment(middleware.UserID(c), intentID, req.PaymentMethodID)
	if err != nil {
		return h.paymentError(c, "confirm payment", err)
	}

	if !result.Succeeded {
		// The system worked; the payment was declined.
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Payment confirmation failed",
		})
	}

	return c.JSON(dto.ConfirmPaymentResponse{Success: true, Subscription: result.Subscription})
}

func (h *PaymentHandler) GetSubscription(c *fiber.Ctx) error {
	sub, err := h.paymentService.GetSubscription(middleware.UserID(c))
	if err != nil {
		return h.paymentError(c, "get subscription", err)
	}
	return c.JSON(dto.SubscriptionResponse{Subscription: sub})
}

func (h *PaymentHandler) CancelSubscription(c *fiber.Ctx) error {
	if err := h.paymentService.CancelSubscription(middleware.UserID(c)); err != nil {
		return h.paymentError(c, "cancel subscription", err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func (h *PaymentHandler) GetPaymentHistory(c *fiber.Ctx) error {
	payments, err := h.paymentService.GetPaymentHistory(middleware.UserID(c))
	if err != nil {
		return h.paymentError(c, "get payment history", err)
	}
	if payments == nil {
		payments = []models.PaymentIntent{}
	}
	return c.JSON(dto.PaymentHistoryResponse{Payments: payments})
}

// paymentError maps service errors onto the HTTP contract. Gateway detail is
// logged server-side and never forwarded to the client.
func (h *PaymentHandler) paymentError(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidPlan):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid plan selected",
		})
	case errors.Is(err, services.ErrInvalidCurrency):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Currency not supported for this plan",
		})
	case errors.Is(err, services.ErrIntentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Payment intent not found",
		})
	case errors.Is(err, services.ErrNotIntentOwner):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "You are not authorized to confirm this payment",
		})
	case errors.Is(err, services.ErrSubscriptionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "No subscription found",
		})
	case gateway.IsRejected(err):
		slog.Error("gateway rejected request", "action", action, "user_id", middleware.UserID(c), "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Payment request was rejected",
		})
	default:
		slog.Error("payment operation failed", "action", action, "user_id", middleware.UserID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
}
