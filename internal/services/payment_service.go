package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/emailcraft/billing-backend/internal/billing"
	"github.com/emailcraft/billing-backend/internal/gateway"
	"github.com/emailcraft/billing-backend/internal/models"
	"github.com/emailcraft/billing-backend/internal/store"
	"gorm.io/datatypes"
)

var (
	ErrInvalidPlan          = errors.New("invalid plan selected")
	ErrInvalidCurrency      = errors.New("currency not supported for this plan")
	ErrIntentNotFound       = errors.New("payment intent not found")
	ErrNotIntentOwner       = errors.New("payment intent belongs to another user")
	ErrSubscriptionNotFound = errors.New("no subscription for this user")
)

// PaymentGateway is the slice of the gateway client the lifecycle needs.
// The concrete *gateway.Client satisfies it; tests substitute a fake.
type PaymentGateway interface {
	CreatePaymentIntent(req gateway.CreateIntentRequest) (*gateway.PaymentIntentResult, error)
	ConfirmPayment(gatewayIntentID, paymentMethodID string) (*gateway.ConfirmResult, error)
}

// PaymentService orchestrates the payment intent and subscription lifecycle:
// create-intent -> confirm -> activation -> cancellation -> history. Intent
// status moves pending -> succeeded|failed exactly once; the stores' conditional
// updates make concurrent confirmation retries race-safe without in-process
// locking.
type PaymentService struct {
	catalog       *billing.Catalog
	gateway       PaymentGateway
	intents       store.PaymentIntentStore
	subscriptions store.SubscriptionStore
	now           func() time.Time
}

func NewPaymentService(
	catalog *billing.Catalog,
	gw PaymentGateway,
	intents store.PaymentIntentStore,
	subscriptions store.SubscriptionStore,
) *PaymentService {
	return &PaymentService{
		catalog:       catalog,
		gateway:       gw,
		intents:       intents,
		subscriptions: subscriptions,
		now:           time.Now,
	}
}

// Catalog exposes the plan table for read-only handlers.
func (s *PaymentService) Catalog() *billing.Catalog { return s.catalog }

type CreateIntentResult struct {
	ClientSecret    string
	PaymentIntentID string
}

// CreateIntent validates the plan and currency, creates the intent at the
// gateway, and records it locally as pending. Validation failures happen
// before the gateway call and leave no side effects; gateway failures leave
// nothing persisted. The client secret is only returned after the local row
// is durable, because ConfirmPayment depends on finding it.
func (s *PaymentService) CreateIntent(userID, email string, planID models.PlanID, cycle models.BillingCycle, currency models.Currency) (*CreateIntentResult, error) {
	plan, err := s.catalog.GetPlan(planID)
	if err != nil {
		return nil, ErrInvalidPlan
	}
	if !plan.SupportsCurrency(currency) {
		return nil, ErrInvalidCurrency
	}

	amount := plan.PriceMinor(cycle)

	result, err := s.gateway.CreatePaymentIntent(gateway.CreateIntentRequest{
		AmountMinor:  amount,
		Currency:     currency,
		UserID:       userID,
		PlanID:       planID,
		BillingCycle: cycle,
		Metadata: map[string]string{
			"customerEmail": email,
			"planName":      plan.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	metadata, _ := json.Marshal(map[string]string{
		"customer_email": email,
		"plan_name":      plan.Name,
	})

	intent := &models.PaymentIntent{
		ID:           result.GatewayIntentID,
		UserID:       userID,
		AmountMinor:  amount,
		Currency:     currency,
		PlanID:       planID,
		BillingCycle: cycle,
		Status:       models.IntentPending,
		Metadata:     datatypes.JSON(metadata),
		CreatedAt:    s.now(),
	}
	if err := s.intents.Insert(intent); err != nil {
		return nil, fmt.Errorf("persist payment intent: %w", err)
	}

	slog.Info("payment intent created",
		"intent_id", intent.ID, "user_id", userID,
		"plan_id", planID, "billing_cycle", cycle, "amount_minor", amount)

	return &CreateIntentResult{
		ClientSecret:    result.ClientSecret,
		PaymentIntentID: result.GatewayIntentID,
	}, nil
}

type ConfirmPaymentResult struct {
	Succeeded    bool
	Subscription *models.Subscription
}

// ConfirmPayment drives an intent to its terminal state. A declined payment is
// a business result (Succeeded=false), not an error; transport failures return
// an error and leave the intent pending, so the caller may retry. Confirming an
// already-succeeded intent returns the current subscription without re-running
// activation.
func (s *PaymentService) ConfirmPayment(userID, intentID, paymentMethodID string) (*ConfirmPaymentResult, error) {
	intent, err := s.intents.FindByID(intentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("load payment intent: %w", err)
	}
	if intent.UserID != userID {
		return nil, ErrNotIntentOwner
	}

	switch intent.Status {
	case models.IntentSucceeded:
		sub, err := s.subscriptions.FindByUser(userID)
		if err != nil {
			return nil, fmt.Errorf("load subscription: %w", err)
		}
		return &ConfirmPaymentResult{Succeeded: true, Subscription: sub}, nil
	case models.IntentFailed:
		return &ConfirmPaymentResult{Succeeded: false}, nil
	}

	confirmation, err := s.gateway.ConfirmPayment(intentID, paymentMethodID)
	if err != nil {
		// Intent stays pending; confirmation is safe to retry.
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	if !confirmation.Succeeded() {
		if _, err := s.intents.MarkFailed(intentID); err != nil {
			return nil, fmt.Errorf("record failed payment: %w", err)
		}
		slog.Info("payment declined", "intent_id", intentID, "user_id", userID, "gateway_status", confirmation.Status)
		return &ConfirmPaymentResult{Succeeded: false}, nil
	}

	return s.activate(intent, paymentMethodID)
}

// activate transitions the intent to succeeded and upserts the subscription.
// The conditional update is the critical section: of any number of racing
// confirmations, exactly one wins the pending -> succeeded transition and
// computes the period; the rest observe a terminal status and return the
// already-activated subscription.
func (s *PaymentService) activate(intent *models.PaymentIntent, paymentMethodID string) (*ConfirmPaymentResult, error) {
	now := s.now()

	won, err := s.intents.MarkSucceeded(intent.ID, paymentMethodID, now)
	if err != nil {
		return nil, fmt.Errorf("record succeeded payment: %w", err)
	}
	if !won {
		sub, err := s.subscriptions.FindByUser(intent.UserID)
		if err != nil {
			return nil, fmt.Errorf("load subscription: %w", err)
		}
		return &ConfirmPaymentResult{Succeeded: true, Subscription: sub}, nil
	}

	sub := &models.Subscription{
		UserID:             intent.UserID,
		PlanID:             intent.PlanID,
		BillingCycle:       intent.BillingCycle,
		Status:             models.SubscriptionActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   billing.AddPeriod(now, intent.BillingCycle),
		UpdatedAt:          now,
	}
	if err := s.subscriptions.Upsert(sub); err != nil {
		return nil, fmt.Errorf("activate subscription: %w", err)
	}

	slog.Info("subscription activated",
		"intent_id", intent.ID, "user_id", intent.UserID,
		"plan_id", intent.PlanID, "period_end", sub.CurrentPeriodEnd)

	return &ConfirmPaymentResult{Succeeded: true, Subscription: sub}, nil
}

// HandleGatewayEvent applies a verified webhook delivery. Payment-succeeded
// events re-enter the same activation path as interactive confirmation; the
// conditional update makes the two paths idempotent against each other.
func (s *PaymentService) HandleGatewayEvent(event *gateway.WebhookEvent) error {
	switch event.Type {
	case gateway.EventPaymentSucceeded:
		intent, err := s.intents.FindByID(event.Data.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrIntentNotFound
			}
			return fmt.Errorf("load payment intent: %w", err)
		}
		if intent.Status != models.IntentPending {
			return nil
		}
		_, err = s.activate(intent, event.Data.PaymentMethodID)
		return err
	default:
		return nil
	}
}

// GetSubscription returns the user's subscription row, or nil when the user
// never subscribed. Cancelled is a status, not an absence.
func (s *PaymentService) GetSubscription(userID string) (*models.Subscription, error) {
	return s.subscriptions.FindByUser(userID)
}

// CancelSubscription is a local status flip: billing is re-confirmed manually
// per period rather than auto-renewed, so there is no recurring gateway object
// to cancel. The row is kept for history.
func (s *PaymentService) CancelSubscription(userID string) error {
	if err := s.subscriptions.Cancel(userID, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSubscriptionNotFound
		}
		return fmt.Errorf("cancel subscription: %w", err)
	}
	slog.Info("subscription cancelled", "user_id", userID)
	return nil
}

// GetPaymentHistory returns the user's succeeded payments, newest first.
func (s *PaymentService) GetPaymentHistory(userID string) ([]models.PaymentIntent, error) {
	return s.intents.ListSucceededByUser(userID)
}

// HasActiveSubscription is the access-check predicate: active status and an
// unexpired period. It is evaluated fresh on every call — expiry is detected
// lazily here, no background job flips expired rows.
func (s *PaymentService) HasActiveSubscription(userID string) (bool, error) {
	sub, err := s.subscriptions.FindByUser(userID)
	if err != nil {
		return false, err
	}
	if sub == nil || sub.Status != models.SubscriptionActive {
		return false, nil
	}
	return !s.now().After(sub.CurrentPeriodEnd), nil
}
