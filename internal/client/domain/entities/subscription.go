package entities

import "time"

// SubscriptionState - состояние подписки пользователя.
type SubscriptionState string

const (
	SubscriptionActive  SubscriptionState = "active"
	SubscriptionTrial   SubscriptionState = "trial"
	SubscriptionExpired SubscriptionState = "expired"
	SubscriptionNone    SubscriptionState = "none"
)

// SubscriptionStatus - результат проверки подписки.
type SubscriptionStatus struct {
	State       SubscriptionState `json:"status"`
	ProductID   string            `json:"productId,omitempty"`
	TrialEndsAt *time.Time        `json:"trialEndsAt,omitempty"`
	ExpiresAt   *time.Time        `json:"expiresAt,omitempty"`
	CheckedAt   time.Time         `json:"checkedAt"`
}

// HasAccess сообщает, открыт ли платный контент.
func (s SubscriptionStatus) HasAccess() bool {
	return s.State == SubscriptionActive || s.State == SubscriptionTrial
}
