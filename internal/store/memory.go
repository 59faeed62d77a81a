package store

import (
	"sort"
	"sync"
	"time"

	"github.com/emailcraft/billing-backend/internal/models"
)

// In-memory store implementations. They honor the same conditional-update
// semantics as the Postgres versions and back the service and handler tests;
// nothing in the server wires them.

type MemoryPaymentIntentStore struct {
	mu      sync.Mutex
	intents map[string]models.PaymentIntent
}

func NewMemoryPaymentIntentStore() *MemoryPaymentIntentStore {
	return &MemoryPaymentIntentStore{intents: make(map[string]models.PaymentIntent)}
}

func (s *MemoryPaymentIntentStore) Insert(intent *models.PaymentIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.intents[intent.ID]; exists {
		return nil
	}
	s.intents[intent.ID] = *intent
	return nil
}

func (s *MemoryPaymentIntentStore) FindByID(id string) (*models.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := intent
	return &out, nil
}

func (s *MemoryPaymentIntentStore) MarkSucceeded(id, paymentMethodID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok || intent.Status != models.IntentPending {
		return false, nil
	}
	intent.Status = models.IntentSucceeded
	intent.PaymentMethodID = &paymentMethodID
	intent.ConfirmedAt = &at
	s.intents[id] = intent
	return true, nil
}

func (s *MemoryPaymentIntentStore) MarkFailed(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok || intent.Status != models.IntentPending {
		return false, nil
	}
	intent.Status = models.IntentFailed
	s.intents[id] = intent
	return true, nil
}

func (s *MemoryPaymentIntentStore) ListSucceededByUser(userID string) ([]models.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PaymentIntent
	for _, intent := range s.intents {
		if intent.UserID == userID && intent.Status == models.IntentSucceeded {
			out = append(out, intent)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type MemorySubscriptionStore struct {
	mu   sync.Mutex
	subs map[string]models.Subscription
}

func NewMemorySubscriptionStore() *MemorySubscriptionStore {
	return &MemorySubscriptionStore{subs: make(map[string]models.Subscription)}
}

func (s *MemorySubscriptionStore) FindByUser(userID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[userID]
	if !ok {
		return nil, nil
	}
	out := sub
	return &out, nil
}

func (s *MemorySubscriptionStore) Upsert(sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.UserID] = *sub
	return nil
}

func (s *MemorySubscriptionStore) Cancel(userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[userID]
	if !ok {
		return ErrNotFound
	}
	sub.Status = models.SubscriptionCancelled
	sub.CancelledAt = &at
	s.subs[userID] = sub
	return nil
}
