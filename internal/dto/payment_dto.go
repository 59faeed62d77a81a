package dto

import (
	"github.com/emailcraft/billing-backend/internal/billing"
	"github.com/emailcraft/billing-backend/internal/models"
)

// Field names mirror the dashboard's existing API contract (camelCase).

type CreateIntentRequest struct {
	PlanID       string `json:"planId" validate:"required,oneof=starter professional enterprise"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly yearly"`
	Currency     string `json:"currency" validate:"omitempty,oneof=USD EUR GBP"`
}

type CreateIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type ConfirmPaymentRequest struct {
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
}

type ConfirmPaymentResponse struct {
	Success      bool                 `json:"success"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

type PlansResponse struct {
	Plans []billing.Plan `json:"plans"`
}

type SubscriptionResponse struct {
	Subscription *models.Subscription `json:"subscription"`
}

type PaymentHistoryResponse struct {
	Payments []models.PaymentIntent `json:"payments"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
