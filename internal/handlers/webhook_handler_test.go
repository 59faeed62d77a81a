package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emailcraft/billing-backend/internal/billing"
	"github.com/emailcraft/billing-backend/internal/gateway"
	"github.com/emailcraft/billing-backend/internal/models"
	"github.com/emailcraft/billing-backend/internal/services"
	"github.com/emailcraft/billing-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

type webhookFixture struct {
	app     *fiber.App
	service *services.PaymentService
	intents *store.MemoryPaymentIntentStore
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	intents := store.NewMemoryPaymentIntentStore()
	service := services.NewPaymentService(
		billing.NewCatalog(),
		&stubGateway{confirmStatus: "succeeded"},
		intents, store.NewMemorySubscriptionStore(),
	)
	verifier := gateway.New(gateway.Config{
		BaseURL:       "https://gateway.invalid",
		APIKey:        "sk_test",
		WebhookSecret: testWebhookSecret,
	})
	handler := NewWebhookHandler(service, verifier)

	app := fiber.New()
	app.Post("/api/webhooks/dodo", handler.HandleDodo)

	return &webhookFixture{app: app, service: service, intents: intents}
}

func sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func deliver(t *testing.T, app *fiber.App, payload []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/dodo", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Dodo-Signature", signature)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func seedPendingIntent(t *testing.T, f *webhookFixture, id, userID string) {
	t.Helper()
	require.NoError(t, f.intents.Insert(&models.PaymentIntent{
		ID:           id,
		UserID:       userID,
		AmountMinor:  2500,
		Currency:     models.CurrencyUSD,
		PlanID:       models.PlanStarter,
		BillingCycle: models.BillingMonthly,
		Status:       models.IntentPending,
	}))
}

func succeededEvent(intentID string) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"type": gateway.EventPaymentSucceeded,
		"data": map[string]string{
			"id":                intentID,
			"payment_method_id": "pm_wh",
		},
	})
	return payload
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)
	seedPendingIntent(t, f, "pi_1", "u1")
	payload := succeededEvent("pi_1")

	resp := deliver(t, f.app, payload, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = deliver(t, f.app, payload, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Nothing was applied.
	sub, err := f.service.GetSubscription("u1")
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestWebhookActivatesSubscription(t *testing.T) {
	f := newWebhookFixture(t)
	seedPendingIntent(t, f, "pi_1", "u1")
	payload := succeededEvent("pi_1")

	resp := deliver(t, f.app, payload, sign(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sub, err := f.service.GetSubscription("u1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, models.SubscriptionActive, sub.Status)

	intent, err := f.intents.FindByID("pi_1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentSucceeded, intent.Status)
	require.NotNil(t, intent.PaymentMethodID)
	assert.Equal(t, "pm_wh", *intent.PaymentMethodID)
}

func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	f := newWebhookFixture(t)
	seedPendingIntent(t, f, "pi_1", "u1")
	payload := succeededEvent("pi_1")

	deliver(t, f.app, payload, sign(payload)).Body.Close()
	first, err := f.service.GetSubscription("u1")
	require.NoError(t, err)

	resp := deliver(t, f.app, payload, sign(payload))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	second, err := f.service.GetSubscription("u1")
	require.NoError(t, err)
	assert.Equal(t, first.CurrentPeriodEnd, second.CurrentPeriodEnd)
}

func TestWebhookUnknownIntentIsAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	payload := succeededEvent("pi_unknown")

	resp := deliver(t, f.app, payload, sign(payload))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebhookUnknownEventTypeIsAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	payload, _ := json.Marshal(map[string]string{"type": "customer.updated"})

	resp := deliver(t, f.app, payload, sign(payload))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebhookMalformedPayload(t *testing.T) {
	f := newWebhookFixture(t)
	payload := []byte("{not json")

	resp := deliver(t, f.app, payload, sign(payload))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
