package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emailcraft/billing-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "sk_test_123", WebhookSecret: "whsec"})
}

func TestCreatePaymentIntentPayload(t *testing.T) {
	var captured map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment-intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]string{
			"id":            "pi_abc",
			"client_secret": "pi_abc_secret",
			"status":        "requires_payment_method",
		})
	})

	result, err := client.CreatePaymentIntent(CreateIntentRequest{
		AmountMinor:  2500,
		Currency:     models.CurrencyUSD,
		UserID:       "user-1",
		PlanID:       models.PlanStarter,
		BillingCycle: models.BillingMonthly,
		Metadata:     map[string]string{"customerEmail": "a@b.co", "planName": "Starter"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_abc", result.GatewayIntentID)
	assert.Equal(t, "pi_abc_secret", result.ClientSecret)

	// Amounts stay in integer minor units and keys go over as snake_case.
	assert.Equal(t, float64(2500), captured["amount"])
	assert.Equal(t, "USD", captured["currency"])
	assert.Equal(t, "user-1", captured["customer_id"])

	metadata := captured["metadata"].(map[string]interface{})
	assert.Equal(t, "starter", metadata["plan_id"])
	assert.Equal(t, "monthly", metadata["billing_cycle"])
	assert.Equal(t, "a@b.co", metadata["customer_email"])
	assert.Equal(t, "Starter", metadata["plan_name"])

	apm := captured["automatic_payment_methods"].(map[string]interface{})
	assert.Equal(t, true, apm["enabled"])
}

func TestConfirmPaymentStatuses(t *testing.T) {
	for _, status := range []string{"succeeded", "failed"} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/payment-intents/pi_abc/confirm", r.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "pm_1", body["payment_method"])
			json.NewEncoder(w).Encode(map[string]string{"id": "pi_abc", "status": status})
		})

		result, err := client.ConfirmPayment("pi_abc", "pm_1")
		require.NoError(t, err)
		assert.Equal(t, status, result.Status)
		assert.Equal(t, status == "succeeded", result.Succeeded())
		assert.NotEmpty(t, result.Raw)
	}
}

func TestGatewayRejectedOn4xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"message":"invalid currency"}}`))
	})

	_, err := client.CreatePaymentIntent(CreateIntentRequest{AmountMinor: 100, Currency: "XXX"})
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.False(t, IsUnavailable(err))

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusUnprocessableEntity, ge.Status)
	assert.Contains(t, ge.Detail, "invalid currency")
}

func TestGatewayUnavailableOn5xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ConfirmPayment("pi_abc", "pm_1")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.False(t, IsRejected(err))
}

func TestGatewayUnavailableOnNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := New(Config{BaseURL: srv.URL, APIKey: "sk"})
	_, err := client.CreatePaymentIntent(CreateIntentRequest{AmountMinor: 100, Currency: models.CurrencyUSD})
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestGatewayUnavailableOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, APIKey: "sk", Timeout: 20 * time.Millisecond})
	_, err := client.ConfirmPayment("pi_abc", "pm_1")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestGetInvoicesDefaultLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customers/cus_1/invoices", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"id": "in_1", "amount": 2500, "currency": "USD", "status": "paid"}},
		})
	})

	invoices, err := client.GetInvoices("cus_1", 0)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, int64(2500), invoices[0].AmountMinor)
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "customer_email", snakeCase("customerEmail"))
	assert.Equal(t, "plan_name", snakeCase("planName"))
	assert.Equal(t, "already_snake", snakeCase("already_snake"))
}
