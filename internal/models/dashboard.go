package models

import "time"

// PackIncome — выручка по паку для рейтинга.
type PackIncome struct {
	PackID      string `json:"pack_id" db:"pack_id"`
	Name        string `json:"name" db:"name"`
	Purchases   int64  `json:"purchases" db:"purchases"`
	IncomeCents int64  `json:"income_cents" db:"income_cents"`
}

// DailyPoint — значение метрики за день.
type DailyPoint struct {
	Day   time.Time `json:"day" db:"day"`
	Value int64     `json:"value" db:"value"`
}

// DashboardStats сводка для панели администратора.
type DashboardStats struct {
	TotalUsers           int64        `json:"total_users"`
	ActiveSubscriptions  int64        `json:"active_subscriptions"`
	ExpiredSubscriptions int64        `json:"expired_subscriptions"`
	TotalIncomeCents     int64        `json:"total_income_cents"`
	MonthlyIncomeCents   int64        `json:"monthly_income_cents"`
	TopPacks             []PackIncome `json:"top_packs"`
	DailyIncome          []DailyPoint `json:"daily_income"`
	DailySignups         []DailyPoint `json:"daily_signups"`
}
