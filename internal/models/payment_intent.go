package models

import (
	"time"

	"gorm.io/datatypes"
)

type PlanID string

const (
	PlanStarter      PlanID = "starter"
	PlanProfessional PlanID = "professional"
	PlanEnterprise   PlanID = "enterprise"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

type IntentStatus string

const (
	IntentPending   IntentStatus = "pending"
	IntentSucceeded IntentStatus = "succeeded"
	IntentFailed    IntentStatus = "failed"
)

// PaymentIntent is one attempt to collect payment for a plan. The primary key
// is the gateway-assigned intent id, which doubles as the idempotency anchor
// for retried create requests. Rows are financial records and are never deleted;
// status only ever moves pending -> succeeded or pending -> failed.
type PaymentIntent struct {
	ID              string         `gorm:"primaryKey;size:64" json:"id"`
	UserID          string         `gorm:"size:36;not null;index" json:"userId"`
	AmountMinor     int64          `gorm:"not null" json:"amountMinor"`
	Currency        Currency       `gorm:"size:3;not null" json:"currency"`
	PlanID          PlanID         `gorm:"size:20;not null" json:"planId"`
	BillingCycle    BillingCycle   `gorm:"size:10;not null" json:"billingCycle"`
	Status          IntentStatus   `gorm:"size:10;not null;default:'pending';index" json:"status"`
	PaymentMethodID *string        `gorm:"size:64" json:"paymentMethodId"`
	Metadata        datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"-"`
	CreatedAt       time.Time      `json:"createdAt"`
	ConfirmedAt     *time.Time     `json:"confirmedAt"`
	UpdatedAt       time.Time      `json:"-"`
}
