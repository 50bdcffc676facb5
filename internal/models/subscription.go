package models

import "time"

// Статусы подписки.
const (
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
	SubscriptionCanceled = "canceled"
)

// Subscription — право пользователя на доступ к паку до CurrentPeriodEnd.
type Subscription struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	PackID           string    `json:"pack_id,omitempty"`
	PackName         string    `json:"pack_name,omitempty"`
	Plan             string    `json:"plan"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsLapsed сообщает, что подписка ещё помечена активной, но её период уже закончился.
func (s *Subscription) IsLapsed(now time.Time) bool {
	return s.Status == SubscriptionActive && s.CurrentPeriodEnd.Before(now)
}

// GrantsAccess сообщает, даёт ли подписка доступ в момент now.
func (s *Subscription) GrantsAccess(now time.Time) bool {
	return s.Status == SubscriptionActive && s.CurrentPeriodEnd.After(now)
}
