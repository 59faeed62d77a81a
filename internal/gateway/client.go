package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emailcraft/billing-backend/internal/models"
)

const defaultTimeout = 30 * time.Second

// Config holds the credentials and endpoint for one Dodo Payments account.
type Config struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	Timeout       time.Duration
}

// Client is a thin adapter over the Dodo Payments REST API. It holds no local
// state beyond credentials and is constructed explicitly at startup — callers
// inject it, there is no package-level instance.
//
// All monetary amounts cross this boundary in integer minor units (cents).
type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	httpClient    *http.Client

	warnNoSecret sync.Once
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// --- Payment intents ---

type CreateIntentRequest struct {
	AmountMinor  int64
	Currency     models.Currency
	UserID       string
	PlanID       models.PlanID
	BillingCycle models.BillingCycle
	Metadata     map[string]string
}

type PaymentIntentResult struct {
	GatewayIntentID string
	ClientSecret    string
}

type createIntentPayload struct {
	Amount                  int64             `json:"amount"`
	Currency                string            `json:"currency"`
	CustomerID              string            `json:"customer_id"`
	Metadata                map[string]string `json:"metadata"`
	AutomaticPaymentMethods struct {
		Enabled bool `json:"enabled"`
	} `json:"automatic_payment_methods"`
}

type paymentIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

func (c *Client) CreatePaymentIntent(req CreateIntentRequest) (*PaymentIntentResult, error) {
	metadata := map[string]string{
		"plan_id":       string(req.PlanID),
		"billing_cycle": string(req.BillingCycle),
	}
	for k, v := range req.Metadata {
		metadata[snakeCase(k)] = v
	}

	payload := createIntentPayload{
		Amount:     req.AmountMinor,
		Currency:   string(req.Currency),
		CustomerID: req.UserID,
		Metadata:   metadata,
	}
	payload.AutomaticPaymentMethods.Enabled = true

	var resp paymentIntentResponse
	if err := c.do(http.MethodPost, "/payment-intents", payload, &resp); err != nil {
		return nil, err
	}
	return &PaymentIntentResult{GatewayIntentID: resp.ID, ClientSecret: resp.ClientSecret}, nil
}

type ConfirmResult struct {
	Status string
	Raw    json.RawMessage
}

// Succeeded reports whether the gateway collected the payment. A false result
// with a nil error is a declined payment, not a transport failure.
func (r *ConfirmResult) Succeeded() bool { return r.Status == "succeeded" }

func (c *Client) ConfirmPayment(gatewayIntentID, paymentMethodID string) (*ConfirmResult, error) {
	payload := map[string]string{"payment_method": paymentMethodID}

	var raw json.RawMessage
	path := "/payment-intents/" + url.PathEscape(gatewayIntentID) + "/confirm"
	if err := c.do(http.MethodPost, path, payload, &raw); err != nil {
		return nil, err
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: "confirm payment", Err: err}
	}
	return &ConfirmResult{Status: status.Status, Raw: raw}, nil
}

// --- Customers and payment methods ---

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (c *Client) CreateCustomer(email, name string, metadata map[string]string) (*Customer, error) {
	payload := map[string]interface{}{"email": email, "name": name, "metadata": metadata}
	var out Customer
	if err := c.do(http.MethodPost, "/customers", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type PaymentMethod struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Last4    string `json:"last4"`
	Brand    string `json:"brand"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

func (c *Client) GetPaymentMethods(customerID string) ([]PaymentMethod, error) {
	var out struct {
		Data []PaymentMethod `json:"data"`
	}
	path := "/customers/" + url.PathEscape(customerID) + "/payment-methods"
	if err := c.do(http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

type CardDetails struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	CVC      string `json:"cvc"`
}

func (c *Client) CreatePaymentMethod(customerID, methodType string, card CardDetails) (*PaymentMethod, error) {
	payload := map[string]interface{}{
		"customer_id": customerID,
		"type":        methodType,
		"card":        card,
	}
	var out PaymentMethod
	if err := c.do(http.MethodPost, "/payment-methods", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AttachPaymentMethod(paymentMethodID, customerID string) error {
	payload := map[string]string{"customer_id": customerID}
	path := "/payment-methods/" + url.PathEscape(paymentMethodID) + "/attach"
	return c.do(http.MethodPost, path, payload, nil)
}

func (c *Client) DetachPaymentMethod(paymentMethodID string) error {
	path := "/payment-methods/" + url.PathEscape(paymentMethodID) + "/detach"
	return c.do(http.MethodPost, path, nil, nil)
}

// --- Recurring subscriptions (gateway-native; unused by the manual
// per-period billing flow but part of the wrapper surface) ---

type GatewaySubscription struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	PlanID     string `json:"plan_id"`
	Status     string `json:"status"`
}

func (c *Client) CreateSubscription(customerID string, planID models.PlanID, paymentMethodID string, cycle models.BillingCycle) (*GatewaySubscription, error) {
	payload := map[string]string{
		"customer_id":       customerID,
		"plan_id":           string(planID),
		"payment_method_id": paymentMethodID,
		"billing_cycle":     string(cycle),
		"collection_method": "charge_automatically",
	}
	var out GatewaySubscription
	if err := c.do(http.MethodPost, "/subscriptions", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelSubscription(subscriptionID string) error {
	return c.do(http.MethodDelete, "/subscriptions/"+url.PathEscape(subscriptionID), nil, nil)
}

// --- Invoices ---

type Invoice struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
}

func (c *Client) GetInvoices(customerID string, limit int) ([]Invoice, error) {
	if limit <= 0 {
		limit = 10
	}
	var out struct {
		Data []Invoice `json:"data"`
	}
	path := "/customers/" + url.PathEscape(customerID) + "/invoices?limit=" + strconv.Itoa(limit)
	if err := c.do(http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// --- Transport ---

func (c *Client) do(method, path string, body, out interface{}) error {
	op := method + " " + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal gateway request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	}

	switch {
	case resp.StatusCode >= 500:
		return &Error{Kind: KindUnavailable, Op: op, Status: resp.StatusCode, Detail: string(respBody)}
	case resp.StatusCode >= 400:
		return &Error{Kind: KindRejected, Op: op, Status: resp.StatusCode, Detail: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Kind: KindUnavailable, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// snakeCase converts lowerCamelCase metadata keys to the gateway's snake_case
// convention (customerEmail -> customer_email).
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
