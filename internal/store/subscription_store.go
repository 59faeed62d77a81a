package store

import (
	"errors"
	"time"

	"github.com/emailcraft/billing-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionStore persists the one-row-per-user subscription table.
type SubscriptionStore interface {
	// FindByUser returns the user's subscription, or nil when the user has
	// never subscribed. A cancelled subscription is still a row.
	FindByUser(userID string) (*models.Subscription, error)
	// Upsert activates or renews, keyed by user_id. Exactly one row per
	// user exists at all times.
	Upsert(sub *models.Subscription) error
	// Cancel flips the row to cancelled and stamps cancelled_at. The row is
	// never deleted. Returns ErrNotFound when the user has no subscription.
	Cancel(userID string, at time.Time) error
}

type subscriptionStore struct {
	db *gorm.DB
}

func NewSubscriptionStore(db *gorm.DB) SubscriptionStore {
	return &subscriptionStore{db: db}
}

func (s *subscriptionStore) FindByUser(userID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.First(&sub, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *subscriptionStore) Upsert(sub *models.Subscription) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_id", "billing_cycle", "status",
			"current_period_start", "current_period_end",
			"cancelled_at", "updated_at",
		}),
	}).Create(sub).Error
}

func (s *subscriptionStore) Cancel(userID string, at time.Time) error {
	res := s.db.Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"status":       models.SubscriptionCancelled,
			"cancelled_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
