package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emailcraft/billing-backend/internal/billing"
	"github.com/emailcraft/billing-backend/internal/gateway"
	"github.com/emailcraft/billing-backend/internal/models"
	"github.com/emailcraft/billing-backend/internal/services"
	"github.com/emailcraft/billing-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopGateway struct{}

func (noopGateway) CreatePaymentIntent(gateway.CreateIntentRequest) (*gateway.PaymentIntentResult, error) {
	return &gateway.PaymentIntentResult{}, nil
}

func (noopGateway) ConfirmPayment(string, string) (*gateway.ConfirmResult, error) {
	return &gateway.ConfirmResult{Status: "succeeded"}, nil
}

// gateTestApp mounts the gate behind a stub that injects the resolved JWT the
// way jwtware does, so the middleware is tested in isolation from token parsing.
func gateTestApp(service *services.PaymentService, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"sub": userID}})
		}
		return c.Next()
	})
	app.Get("/gated", RequireActiveSubscription(service), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func TestRequireActiveSubscription(t *testing.T) {
	subs := store.NewMemorySubscriptionStore()
	service := services.NewPaymentService(billing.NewCatalog(), noopGateway{}, store.NewMemoryPaymentIntentStore(), subs)

	now := time.Now()

	require.NoError(t, subs.Upsert(&models.Subscription{
		UserID:             "active-user",
		PlanID:             models.PlanStarter,
		BillingCycle:       models.BillingMonthly,
		Status:             models.SubscriptionActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}))
	require.NoError(t, subs.Upsert(&models.Subscription{
		UserID:             "expired-user",
		PlanID:             models.PlanStarter,
		BillingCycle:       models.BillingMonthly,
		Status:             models.SubscriptionActive,
		CurrentPeriodStart: now.AddDate(0, -2, 0),
		CurrentPeriodEnd:   now.AddDate(0, -1, 0),
	}))
	require.NoError(t, subs.Upsert(&models.Subscription{
		UserID:             "cancelled-user",
		PlanID:             models.PlanStarter,
		BillingCycle:       models.BillingMonthly,
		Status:             models.SubscriptionCancelled,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}))

	cases := []struct {
		name   string
		userID string
		want   int
	}{
		{"active subscription passes", "active-user", http.StatusOK},
		{"expired period is forbidden", "expired-user", http.StatusForbidden},
		{"cancelled is forbidden", "cancelled-user", http.StatusForbidden},
		{"never subscribed is forbidden", "new-user", http.StatusForbidden},
		{"no identity is unauthorized", "", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := gateTestApp(service, tc.userID)
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/gated", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
