package store

import (
	"errors"
	"time"

	"github.com/emailcraft/billing-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

// PaymentIntentStore persists payment intents. Implementations must provide
// an atomic conditional update for status transitions: multiple server
// instances may race to confirm the same intent, and exactly one transition
// out of pending may win.
type PaymentIntentStore interface {
	// Insert records a new pending intent. Inserting an id that already
	// exists is a no-op, not an error: the gateway-assigned id is the
	// idempotency anchor for retried create requests.
	Insert(intent *models.PaymentIntent) error
	FindByID(id string) (*models.PaymentIntent, error)
	// MarkSucceeded transitions pending -> succeeded, stamping the payment
	// method and confirmation time. Returns false when the row was not in
	// pending state, in which case nothing was written.
	MarkSucceeded(id, paymentMethodID string, at time.Time) (bool, error)
	// MarkFailed transitions pending -> failed under the same guard.
	MarkFailed(id string) (bool, error)
	// ListSucceededByUser returns the user's succeeded intents, newest first.
	ListSucceededByUser(userID string) ([]models.PaymentIntent, error)
}

type paymentIntentStore struct {
	db *gorm.DB
}

func NewPaymentIntentStore(db *gorm.DB) PaymentIntentStore {
	return &paymentIntentStore{db: db}
}

func (s *paymentIntentStore) Insert(intent *models.PaymentIntent) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(intent).Error
}

func (s *paymentIntentStore) FindByID(id string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	if err := s.db.First(&intent, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &intent, nil
}

func (s *paymentIntentStore) MarkSucceeded(id, paymentMethodID string, at time.Time) (bool, error) {
	res := s.db.Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", id, models.IntentPending).
		Updates(map[string]interface{}{
			"status":            models.IntentSucceeded,
			"payment_method_id": paymentMethodID,
			"confirmed_at":      at,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *paymentIntentStore) MarkFailed(id string) (bool, error) {
	res := s.db.Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", id, models.IntentPending).
		Update("status", models.IntentFailed)
	return res.RowsAffected > 0, res.Error
}

func (s *paymentIntentStore) ListSucceededByUser(userID string) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	err := s.db.
		Where("user_id = ? AND status = ?", userID, models.IntentSucceeded).
		Order("created_at DESC").
		Find(&intents).Error
	return intents, err
}
