package models

import "time"

// Статусы покупки пака.
const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
	PurchaseFailed    = "failed"
)

// PackPurchase — попытка покупки пака.
// Переходы статуса: pending -> completed | failed.
type PackPurchase struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	PackID          string    `json:"pack_id"`
	PlanLabel       string    `json:"plan_label"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	PayPalOrderID   string    `json:"paypal_order_id,omitempty"`
	PayPalCaptureID string    `json:"paypal_capture_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Checkout — результат инициации покупки.
type Checkout struct {
	PurchaseID  string `json:"purchase_id"`
	OrderID     string `json:"order_id"`
	ApproveURL  string `json:"approve_url,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// OrderCorrelation данные, передаваемые шлюзу в custom_id заказа
// и возвращаемые им в событии об оплате.
type OrderCorrelation struct {
	UserID    string `json:"userId"`
	PlanLabel string `json:"planLabel"`
}
