package domain

import "time"

// SubscriptionStatus describes the account's subscription lifecycle state.
type SubscriptionStatus string

const (
	SubscriptionNone    SubscriptionStatus = "none"
	SubscriptionTrial   SubscriptionStatus = "trial"
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// Valid reports whether the status is one of the known states.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionNone, SubscriptionTrial, SubscriptionActive, SubscriptionExpired:
		return true
	}
	return false
}

// Usable reports whether the status grants access to subscriber features.
func (s SubscriptionStatus) Usable() bool {
	return s == SubscriptionActive || s == SubscriptionTrial
}

// Subscription is the backend's view of an account's current subscription.
type Subscription struct {
	ID        string             `json:"id"`
	Status    SubscriptionStatus `json:"status"`
	ExpiresAt *time.Time         `json:"expiresAt"`
}

// ActiveAt reports whether the subscription is usable and unexpired at the
// given instant.
func (s *Subscription) ActiveAt(now time.Time) bool {
	if s == nil || !s.Status.Usable() {
		return false
	}
	return s.ExpiresAt != nil && s.ExpiresAt.After(now)
}
