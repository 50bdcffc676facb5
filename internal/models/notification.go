package models

import "time"

// PasswordResetMessage публикуется при запросе сброса пароля.
type PasswordResetMessage struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	ResetURL string    `json:"reset_url"`
	Expires  time.Time `json:"expires"`
}

// PurchaseReceiptMessage публикуется после подтверждения оплаты.
type PurchaseReceiptMessage struct {
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	PackName    string    `json:"pack_name"`
	Plan        string    `json:"plan"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	PeriodEnd   time.Time `json:"period_end"`
}

// ExpiringSubscriptionMessage публикуется планировщиком за день до окончания подписки.
type ExpiringSubscriptionMessage struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PackName  string    `json:"pack_name"`
	Plan      string    `json:"plan"`
	PeriodEnd time.Time `json:"period_end"`
}
