package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

// Папки медиахранилища.
const (
	folderCategories = "categories"
	folderCourses    = "courses"
	folderLessons    = "lessons"
)

func (s *CatalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("services.catalog.ListCategories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, category models.Category, image *Upload) (*models.Category, error) {
	const op = "services.catalog.CreateCategory"
	if image != nil {
		url, err := s.upload(ctx, folderCategories, image)
		if err != nil {
			return nil, err
		}
		category.ImageURL = url
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		return nil, mapWriteErr(op, "category", err)
	}
	s.invalidate()
	s.log.Info("category created", slog.String("id", created.ID), slog.String("slug", created.Slug))
	return created, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch, image *Upload) (*models.Category, error) {
	const op = "services.catalog.UpdateCategory"
	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, mapWriteErr(op, "category", err)
	}
	patch.Apply(category)
	if image != nil {
		url, err := s.upload(ctx, folderCategories, image)
		if err != nil {
			return nil, err
		}
		category.ImageURL = url
	}
	updated, err := s.repo.UpdateCategory(ctx, *category)
	if err != nil {
		return nil, mapWriteErr(op, "category", err)
	}
	s.invalidate()
	return updated, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return mapWriteErr("services.catalog.DeleteCategory", "category", err)
	}
	s.invalidate()
	return nil
}

func (s *CatalogService) ListPacks(ctx context.Context) ([]*models.Pack, error) {
	packs, err := s.repo.ListPacks(ctx)
	if err != nil {
		return nil, fmt.Errorf("services.catalog.ListPacks: %w", err)
	}
	return packs, nil
}

func (s *CatalogService) GetPack(ctx context.Context, id string) (*models.Pack, error) {
	pack, err := s.repo.GetPack(ctx, id)
	if err != nil {
		return nil, mapWriteErr("services.catalog.GetPack", "pack", err)
	}
	return pack, nil
}

// CreatePack создаёт пак и привязывает к нему курсы в одной транзакции.
func (s *CatalogService) CreatePack(ctx context.Context, pack models.Pack) (*models.Pack, error) {
	const op = "services.catalog.CreatePack"
	if err := validatePlans(pack.Plans); err != nil {
		return nil, err
	}

	var created *models.Pack
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repo.CreatePack(ctx, pack)
		if err != nil {
			return err
		}
		if len(pack.CourseIDs) == 0 {
			return nil
		}
		if err := s.repo.AssignCourses(ctx, created.ID, pack.CourseIDs); err != nil {
			return err
		}
		created, err = s.repo.GetPack(ctx, created.ID)
		return err
	})
	if err != nil {
		return nil, mapWriteErr(op, "pack", err)
	}
	s.invalidate()
	s.log.Info("pack created", slog.String("id", created.ID), slog.Int("plans", len(created.Plans)))
	return created, nil
}

func (s *CatalogService) UpdatePack(ctx context.Context, id string, patch models.PackPatch) (*models.Pack, error) {
	const op = "services.catalog.UpdatePack"

	var updated *models.Pack
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		pack, err := s.repo.GetPack(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(pack)
		if err := validatePlans(pack.Plans); err != nil {
			return err
		}
		if _, err := s.repo.UpdatePack(ctx, *pack); err != nil {
			return err
		}
		if patch.CourseIDs != nil {
			if err := s.repo.AssignCourses(ctx, id, *patch.CourseIDs); err != nil {
				return err
			}
		}
		updated, err = s.repo.GetPack(ctx, id)
		return err
	})
	if apperr.KindOf(err) == apperr.KindValidation {
		return nil, err
	}
	if err != nil {
		return nil, mapWriteErr(op, "pack", err)
	}
	s.invalidate()
	return updated, nil
}

func (s *CatalogService) DeletePack(ctx context.Context, id string) error {
	if err := s.repo.DeletePack(ctx, id); err != nil {
		return mapWriteErr("services.catalog.DeletePack", "pack", err)
	}
	s.invalidate()
	return nil
}

func (s *CatalogService) ListCourses(ctx context.Context) ([]*models.Course, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("services.catalog.ListCourses: %w", err)
	}
	return courses, nil
}

func (s *CatalogService) CreateCourse(ctx context.Context, course models.Course) (*models.Course, error) {
	if course.CoachName == "" {
		course.CoachName = defaultCoachName
	}
	created, err := s.repo.CreateCourse(ctx, course)
	if err != nil {
		return nil, mapWriteErr("services.catalog.CreateCourse", "course", err)
	}
	s.invalidate()
	return created, nil
}

func (s *CatalogService) UpdateCourse(ctx context.Context, id string, patch models.CoursePatch) (*models.Course, error) {
	const op = "services.catalog.UpdateCourse"
	course, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		return nil, mapWriteErr(op, "course", err)
	}
	patch.Apply(course)
	updated, err := s.repo.UpdateCourse(ctx, *course)
	if err != nil {
		return nil, mapWriteErr(op, "course", err)
	}
	s.invalidate()
	return updated, nil
}

func (s *CatalogService) DeleteCourse(ctx context.Context, id string) error {
	if err := s.repo.DeleteCourse(ctx, id); err != nil {
		return mapWriteErr("services.catalog.DeleteCourse", "course", err)
	}
	s.invalidate()
	return nil
}

// ListLessons уроки курса в порядке position.
func (s *CatalogService) ListLessons(ctx context.Context, courseID string) ([]*models.Lesson, error) {
	const op = "services.catalog.ListLessons"
	if _, err := s.repo.GetCourse(ctx, courseID); err != nil {
		return nil, mapWriteErr(op, "course", err)
	}
	lessons, err := s.repo.ListLessons(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lessons, nil
}

func (s *CatalogService) CreateLesson(ctx context.Context, lesson models.Lesson, video *Upload) (*models.Lesson, error) {
	const op = "services.catalog.CreateLesson"
	if video != nil {
		url, err := s.upload(ctx, folderLessons, video)
		if err != nil {
			return nil, err
		}
		lesson.VideoURL = url
	}
	created, err := s.repo.CreateLesson(ctx, lesson)
	if err != nil {
		return nil, mapWriteErr(op, "course", err)
	}
	return created, nil
}

func (s *CatalogService) UpdateLesson(ctx context.Context, id string, patch models.LessonPatch, video *Upload) (*models.Lesson, error) {
	const op = "services.catalog.UpdateLesson"
	lesson, err := s.repo.GetLesson(ctx, id)
	if err != nil {
		return nil, mapWriteErr(op, "lesson", err)
	}
	patch.Apply(lesson)
	if video != nil {
		url, err := s.upload(ctx, folderLessons, video)
		if err != nil {
			return nil, err
		}
		lesson.VideoURL = url
	}
	updated, err := s.repo.UpdateLesson(ctx, *lesson)
	if err != nil {
		return nil, mapWriteErr(op, "lesson", err)
	}
	return updated, nil
}

func (s *CatalogService) DeleteLesson(ctx context.Context, id string) error {
	if err := s.repo.DeleteLesson(ctx, id); err != nil {
		return mapWriteErr("services.catalog.DeleteLesson", "lesson", err)
	}
	return nil
}

func (s *CatalogService) ListCourseImages(ctx context.Context, courseID string) ([]*models.CourseImage, error) {
	const op = "services.catalog.ListCourseImages"
	if _, err := s.repo.GetCourse(ctx, courseID); err != nil {
		return nil, mapWriteErr(op, "course", err)
	}
	images, err := s.repo.ListCourseImages(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return images, nil
}

// AddCourseImage добавляет изображение по загруженному файлу или готовому URL.
func (s *CatalogService) AddCourseImage(ctx context.Context, image models.CourseImage, file *Upload) (*models.CourseImage, error) {
	const op = "services.catalog.AddCourseImage"
	if file != nil {
		url, err := s.upload(ctx, folderCourses, file)
		if err != nil {
			return nil, err
		}
		image.ImageURL = url
	}
	if image.ImageURL == "" {
		return nil, apperr.Validation("image file or image_url is required")
	}
	created, err := s.repo.CreateCourseImage(ctx, image)
	if err != nil {
		return nil, mapWriteErr(op, "course", err)
	}
	return created, nil
}

func (s *CatalogService) DeleteCourseImage(ctx context.Context, courseID, id string) error {
	if err := s.repo.DeleteCourseImage(ctx, courseID, id); err != nil {
		return mapWriteErr("services.catalog.DeleteCourseImage", "image", err)
	}
	return nil
}

// validatePlans проверяет, что метки тарифов уникальны, а сроки положительны.
func validatePlans(plans []models.Plan) error {
	seen := make(map[string]bool, len(plans))
	for _, p := range plans {
		if p.Label == "" {
			return apperr.Validation("plan label is required")
		}
		if p.DurationDays <= 0 {
			return apperr.Validation(fmt.Sprintf("plan %q: duration_days must be positive", p.Label))
		}
		if p.PriceCents < 0 {
			return apperr.Validation(fmt.Sprintf("plan %q: price_cents must not be negative", p.Label))
		}
		if seen[p.Label] {
			return apperr.Validation(fmt.Sprintf("duplicate plan label %q", p.Label))
		}
		seen[p.Label] = true
	}
	return nil
}
