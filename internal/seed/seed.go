// Package seed заполняет базу начальными данными: администратор и
// демонстрационный каталог. Повторный запуск не создаёт дубликатов.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/password"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

type Repository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, category models.Category) (*models.Category, error)
	ListPacks(ctx context.Context) ([]*models.Pack, error)
	CreatePack(ctx context.Context, pack models.Pack) (*models.Pack, error)
	ListCourses(ctx context.Context) ([]*models.Course, error)
	CreateCourse(ctx context.Context, course models.Course) (*models.Course, error)
	ListLessons(ctx context.Context, courseID string) ([]*models.Lesson, error)
	CreateLesson(ctx context.Context, lesson models.Lesson) (*models.Lesson, error)
}

type Seeder struct {
	repo Repository
	log  *slog.Logger
}

func New(repo Repository, log *slog.Logger) *Seeder {
	return &Seeder{repo: repo, log: log}
}

// Admin создаёт администратора или повышает роль существующего пользователя.
// Пароль существующего пользователя меняется, только если resetPassword.
func (s *Seeder) Admin(ctx context.Context, email, name, pass string, resetPassword bool) (*models.User, error) {
	const op = "seed.Admin"

	existing, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		role := models.RoleAdmin
		u, err := s.repo.UpdateUser(ctx, existing.ID, models.UserPatch{Role: &role})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if resetPassword {
			hash, err := password.GetHash(pass)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if err := s.repo.UpdatePassword(ctx, u.ID, hash); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		s.log.Info("admin already exists", slog.String("email", email))
		return u, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(pass)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u, err := s.repo.CreateUser(ctx, models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin created", slog.String("email", email))
	return u, nil
}

type demoCourse struct {
	course   models.Course
	category string
	pack     string
	lessons  []models.Lesson
}

var (
	demoCategories = []models.Category{
		{Name: "Programming", Slug: "programming"},
		{Name: "Fitness", Slug: "fitness"},
		{Name: "Nutrition", Slug: "nutrition"},
	}

	demoPacks = []struct {
		pack     models.Pack
		category string
	}{
		{
			pack: models.Pack{
				Name:        "Full Stack Bootcamp",
				Description: "Learn full stack development in 3 months",
				IsPublished: true,
				Plans: []models.Plan{
					{Label: "1 Month", DurationDays: 30, PriceCents: 50000},
					{Label: "3 Months", DurationDays: 90, PriceCents: 120000},
				},
			},
			category: "programming",
		},
		{
			pack: models.Pack{
				Name:        "30-Day Fitness Plan",
				Description: "Get in shape in 30 days",
				IsPublished: true,
				Plans: []models.Plan{
					{Label: "1 Month", DurationDays: 30, PriceCents: 3000},
				},
			},
			category: "fitness",
		},
	}

	demoCourses = []demoCourse{
		{
			course: models.Course{
				Title:       "Node.js Basics",
				Description: "Learn the fundamentals of Node.js",
				Level:       "Beginner",
				IsPublished: true,
				CoachName:   "Dhia Tahani",
			},
			category: "programming",
			pack:     "Full Stack Bootcamp",
			lessons: []models.Lesson{
				{Title: "Introduction to Node.js", Content: "This lesson covers Node.js basics...", VideoURL: "https://example.com/video1.mp4", Position: 1},
				{Title: "Node.js Modules", Content: "Understanding modules in Node.js...", VideoURL: "https://example.com/video2.mp4", Position: 2},
			},
		},
		{
			course: models.Course{
				Title:       "Fitness 101",
				Description: "Introduction to fitness and exercises",
				Level:       "Beginner",
				IsPublished: true,
				CoachName:   "Coach John",
			},
			category: "fitness",
			pack:     "30-Day Fitness Plan",
			lessons: []models.Lesson{
				{Title: "Warm-up Exercises", Content: "Learn basic warm-up exercises...", VideoURL: "https://example.com/fitness1.mp4", Position: 1},
			},
		},
	}
)

// Demo создаёт демонстрационные категории, паки, курсы и уроки, которых ещё нет.
func (s *Seeder) Demo(ctx context.Context) error {
	const op = "seed.Demo"

	categories := make(map[string]string, len(demoCategories))
	for _, c := range demoCategories {
		id, err := s.ensureCategory(ctx, c)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		categories[c.Slug] = id
	}

	existingPacks, err := s.repo.ListPacks(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	packs := make(map[string]string, len(existingPacks))
	for _, p := range existingPacks {
		packs[p.Name] = p.ID
	}
	for _, dp := range demoPacks {
		if _, ok := packs[dp.pack.Name]; ok {
			continue
		}
		p := dp.pack
		p.CategoryID = categories[dp.category]
		created, err := s.repo.CreatePack(ctx, p)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		packs[created.Name] = created.ID
		s.log.Info("pack created", slog.String("name", created.Name))
	}

	existingCourses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	courses := make(map[string]string, len(existingCourses))
	for _, c := range existingCourses {
		courses[c.Title] = c.ID
	}
	for _, dc := range demoCourses {
		id, ok := courses[dc.course.Title]
		if !ok {
			c := dc.course
			c.CategoryID = categories[dc.category]
			c.PackID = packs[dc.pack]
			created, err := s.repo.CreateCourse(ctx, c)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			id = created.ID
			s.log.Info("course created", slog.String("title", created.Title))
		}
		if err := s.ensureLessons(ctx, id, dc.lessons); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func (s *Seeder) ensureCategory(ctx context.Context, c models.Category) (string, error) {
	existing, err := s.repo.GetCategoryBySlug(ctx, c.Slug)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	created, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return "", err
	}
	s.log.Info("category created", slog.String("slug", created.Slug))
	return created.ID, nil
}

func (s *Seeder) ensureLessons(ctx context.Context, courseID string, lessons []models.Lesson) error {
	existing, err := s.repo.ListLessons(ctx, courseID)
	if err != nil {
		return err
	}
	titles := make(map[string]bool, len(existing))
	for _, l := range existing {
		titles[l.Title] = true
	}
	for _, l := range lessons {
		if titles[l.Title] {
			continue
		}
		l.CourseID = courseID
		if _, err := s.repo.CreateLesson(ctx, l); err != nil {
			return err
		}
	}
	return nil
}
