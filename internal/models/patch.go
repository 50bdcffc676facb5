package models

// Частичные обновления сущностей каталога: nil означает «не менять».

type CategoryPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=2"`
	Slug     *string `json:"slug" validate:"omitempty,min=2"`
	ImageURL *string `json:"image_url" validate:"omitempty,url"`
}

type PackPatch struct {
	CategoryID  *string   `json:"category_id" validate:"omitempty,uuid"`
	Name        *string   `json:"name" validate:"omitempty,min=2"`
	Description *string   `json:"description"`
	IsPublished *bool     `json:"is_published"`
	Plans       *[]Plan   `json:"plans" validate:"omitempty,dive"`
	CourseIDs   *[]string `json:"courses" validate:"omitempty,dive,uuid"`
}

type CoursePatch struct {
	PackID      *string `json:"pack_id" validate:"omitempty,uuid"`
	CategoryID  *string `json:"category_id" validate:"omitempty,uuid"`
	Title       *string `json:"title" validate:"omitempty,min=2"`
	Description *string `json:"description"`
	Level       *string `json:"level"`
	IsPublished *bool   `json:"is_published"`
	CoachName   *string `json:"coach_name"`
}

type LessonPatch struct {
	Title    *string `json:"title" validate:"omitempty,min=1"`
	Content  *string `json:"content"`
	VideoURL *string `json:"video_url" validate:"omitempty,url"`
	Position *int    `json:"position" validate:"omitempty,gte=0"`
}

type HealthyPackagePatch struct {
	Name         *string           `json:"name" validate:"omitempty,min=2"`
	Description  *string           `json:"description"`
	DurationDays *int              `json:"duration_days" validate:"omitempty,gt=0"`
	Features     *[]HealthyFeature `json:"features" validate:"omitempty,dive"`
	Images       *[]HealthyImage   `json:"images"`
	IsPublished  *bool             `json:"is_published"`
}

// Apply применяет изменения к категории.
func (p CategoryPatch) Apply(c *Category) {
	setString(&c.Name, p.Name)
	setString(&c.Slug, p.Slug)
	setString(&c.ImageURL, p.ImageURL)
}

func (p PackPatch) Apply(pack *Pack) {
	setString(&pack.CategoryID, p.CategoryID)
	setString(&pack.Name, p.Name)
	setString(&pack.Description, p.Description)
	if p.IsPublished != nil {
		pack.IsPublished = *p.IsPublished
	}
	if p.Plans != nil {
		pack.Plans = *p.Plans
	}
	if p.CourseIDs != nil {
		pack.CourseIDs = *p.CourseIDs
	}
}

func (p CoursePatch) Apply(c *Course) {
	setString(&c.PackID, p.PackID)
	setString(&c.CategoryID, p.CategoryID)
	setString(&c.Title, p.Title)
	setString(&c.Description, p.Description)
	setString(&c.Level, p.Level)
	setString(&c.CoachName, p.CoachName)
	if p.IsPublished != nil {
		c.IsPublished = *p.IsPublished
	}
}

func (p LessonPatch) Apply(l *Lesson) {
	setString(&l.Title, p.Title)
	setString(&l.Content, p.Content)
	setString(&l.VideoURL, p.VideoURL)
	if p.Position != nil {
		l.Position = *p.Position
	}
}

func (p HealthyPackagePatch) Apply(h *HealthyPackage) {
	setString(&h.Name, p.Name)
	setString(&h.Description, p.Description)
	if p.DurationDays != nil {
		h.DurationDays = *p.DurationDays
	}
	if p.Features != nil {
		h.Features = *p.Features
	}
	if p.Images != nil {
		h.Images = *p.Images
	}
	if p.IsPublished != nil {
		h.IsPublished = *p.IsPublished
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
