package models

import "time"

// Category группирует паки по тематике.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Plan — ценовой тариф пака: срок доступа и цена в центах.
type Plan struct {
	Label        string `json:"label" validate:"required"`
	DurationDays int    `json:"duration_days" validate:"required,gt=0"`
	PriceCents   int64  `json:"price_cents" validate:"gte=0"`
}

// Duration возвращает длительность тарифа. Календарные месяцы не учитываются.
func (p Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// Pack — продаваемая единица каталога, набор курсов с тарифами.
type Pack struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublished bool      `json:"is_published"`
	Plans       []Plan    `json:"plans"`
	CourseIDs   []string  `json:"courses"`
	CreatedAt   time.Time `json:"created_at"`
}

// FindPlan ищет тариф по метке.
func (p *Pack) FindPlan(label string) (Plan, bool) {
	for _, plan := range p.Plans {
		if plan.Label == label {
			return plan, true
		}
	}
	return Plan{}, false
}

// PackDetail — пак вместе с опубликованными курсами.
type PackDetail struct {
	Pack    *Pack     `json:"pack"`
	Courses []*Course `json:"courses"`
}

// Course принадлежит паку; доступ к содержимому определяется покупкой или подпиской на пак.
type Course struct {
	ID           string    `json:"id"`
	PackID       string    `json:"pack_id,omitempty"`
	CategoryID   string    `json:"category_id,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Level        string    `json:"level"`
	IsPublished  bool      `json:"is_published"`
	CoachName    string    `json:"coach_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// CourseDetail — курс с уроками и изображениями.
type CourseDetail struct {
	Course  *Course        `json:"course"`
	Lessons []*Lesson      `json:"lessons"`
	Images  []*CourseImage `json:"images"`
}

// Lesson — урок курса. Position не уникален.
type Lesson struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	VideoURL  string    `json:"video_url"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// CourseImage — изображение курса.
type CourseImage struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	ImageURL string `json:"image_url"`
	Pos      int    `json:"pos"`
}
