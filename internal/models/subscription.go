package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription is the single billing entitlement row per user (unique index on
// user_id; activations are upserts, never inserts of a second row). The period
// is computed once at activation. Cancellation flips status and stamps
// CancelledAt; the row itself stays for audit. A later successful payment
// reactivates it with a fresh period.
type Subscription struct {
	ID                 uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID             string             `gorm:"size:36;not null;uniqueIndex" json:"userId"`
	PlanID             PlanID             `gorm:"size:20;not null" json:"planId"`
	BillingCycle       BillingCycle       `gorm:"size:10;not null" json:"billingCycle"`
	Status             SubscriptionStatus `gorm:"size:10;not null;default:'active'" json:"status"`
	CurrentPeriodStart time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time          `json:"currentPeriodEnd"`
	CancelledAt        *time.Time         `json:"cancelledAt"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}
