package models

import "time"

// HealthyFeature — пункт описания healthy-пакета.
type HealthyFeature struct {
	Title   string `json:"title" validate:"required"`
	Details string `json:"details"`
}

// HealthyImage — изображение healthy-пакета.
type HealthyImage struct {
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Position int    `json:"position"`
}

// HealthyPackage — продукт отдельной линейки, не связан с подписками на паки.
type HealthyPackage struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	DurationDays int              `json:"duration_days"`
	Features     []HealthyFeature `json:"features"`
	Images       []HealthyImage   `json:"images"`
	IsPublished  bool             `json:"is_published"`
	CreatedAt    time.Time        `json:"created_at"`
}

// HealthyPlanPrice — цена healthy-тарифа (monthly или quarterly).
type HealthyPlanPrice struct {
	Plan       string `json:"plan" validate:"required,oneof=monthly quarterly"`
	PriceCents int64  `json:"price_cents" validate:"gte=0"`
}

// HealthyPrice — текущий прайс healthy-линейки.
type HealthyPrice struct {
	Plans     []HealthyPlanPrice `json:"plans"`
	UpdatedAt time.Time          `json:"updated_at"`
}
