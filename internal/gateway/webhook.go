package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"strings"
)

// VerifyWebhookSignature checks the HMAC-SHA256 signature the gateway attaches
// to webhook deliveries against the raw request payload. It never returns an
// error: when the signing secret is not configured, every payload is rejected
// (fail closed) and a warning is logged once per process lifetime.
func (c *Client) VerifyWebhookSignature(signature string, payload []byte) bool {
	if c.webhookSecret == "" {
		c.warnNoSecret.Do(func() {
			slog.Warn("webhook signing secret not configured; rejecting all webhook deliveries")
		})
		return false
	}
	if signature == "" {
		return false
	}

	// Accept both bare hex and the "sha256=<hex>" header form.
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// WebhookEvent is the decoded shape of a gateway webhook delivery.
type WebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID              string `json:"id"`
		PaymentMethodID string `json:"payment_method_id"`
		CustomerID      string `json:"customer_id"`
	} `json:"data"`
}

// EventPaymentSucceeded is the only event type that drives local state; all
// others are acknowledged and ignored.
const EventPaymentSucceeded = "payment_intent.succeeded"
