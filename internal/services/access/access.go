// Package services проверка права доступа к содержимому курсов.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

type Repository interface {
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	GetLesson(ctx context.Context, id string) (*models.Lesson, error)
	ListLessons(ctx context.Context, courseID string) ([]*models.Lesson, error)
	ListCourseImages(ctx context.Context, courseID string) ([]*models.CourseImage, error)
	HasCompletedPurchase(ctx context.Context, userID, packID string) (bool, error)
	HasActiveSubscription(ctx context.Context, userID, packID string, now time.Time) (bool, error)
}

type AccessService struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewAccessService(repo Repository, log *slog.Logger) *AccessService {
	return &AccessService{repo: repo, log: log, now: time.Now}
}

// CanAccessPack сообщает, есть ли у пользователя завершённая покупка пака
// или действующая подписка на него.
func (s *AccessService) CanAccessPack(ctx context.Context, userID, packID string) (bool, error) {
	const op = "services.access.CanAccessPack"
	if packID == "" {
		return false, nil
	}
	purchased, err := s.repo.HasCompletedPurchase(ctx, userID, packID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if purchased {
		return true, nil
	}
	active, err := s.repo.HasActiveSubscription(ctx, userID, packID, s.now())
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return active, nil
}

// CourseContent возвращает курс с уроками, если вызывающему разрешён доступ.
// Администратор видит любой курс, включая неопубликованные.
func (s *AccessService) CourseContent(ctx context.Context, caller jwt.Identity, courseID string) (*models.CourseDetail, error) {
	const op = "services.access.CourseContent"

	course, err := s.authorize(ctx, caller, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.repo.ListLessons(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	images, err := s.repo.ListCourseImages(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.CourseDetail{Course: course, Lessons: lessons, Images: images}, nil
}

// Lesson возвращает урок курса при наличии доступа.
func (s *AccessService) Lesson(ctx context.Context, caller jwt.Identity, courseID, lessonID string) (*models.Lesson, error) {
	const op = "services.access.Lesson"

	course, err := s.authorize(ctx, caller, courseID)
	if err != nil {
		return nil, err
	}
	lesson, err := s.repo.GetLesson(ctx, lessonID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && lesson.CourseID != course.ID) {
		return nil, apperr.NotFound("lesson not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lesson, nil
}

func (s *AccessService) authorize(ctx context.Context, caller jwt.Identity, courseID string) (*models.Course, error) {
	const op = "services.access.authorize"

	course, err := s.repo.GetCourse(ctx, courseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if caller.Role == models.RoleAdmin {
		return course, nil
	}
	if !course.IsPublished {
		return nil, apperr.NotFound("course not found")
	}

	ok, err := s.CanAccessPack(ctx, caller.ID, course.PackID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Info("course access denied",
			slog.String("user_id", caller.ID),
			slog.String("course_id", course.ID),
			slog.String("pack_id", course.PackID))
		return nil, apperr.Forbidden("purchase or active subscription required")
	}
	return course, nil
}
