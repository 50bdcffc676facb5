// Package services каталог: категории, паки, курсы, уроки и изображения.
// Публичные чтения кэшируются, любое изменение сбрасывает кэш каталога.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/sl"
	"github.com/magabrotheeeer/elearning-platform/internal/mediastore"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

const (
	cachePrefix      = "catalog:"
	keyCategories    = cachePrefix + "categories"
	keyCategoryPacks = cachePrefix + "category:%s:packs"
	keyPackDetail    = cachePrefix + "pack:%s"
	defaultCoachName = "Coach"
)

type Repository interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, category models.Category) (*models.Category, error)
	UpdateCategory(ctx context.Context, category models.Category) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListPacks(ctx context.Context) ([]*models.Pack, error)
	ListPublishedPacksByCategory(ctx context.Context, categoryID string) ([]*models.Pack, error)
	GetPack(ctx context.Context, id string) (*models.Pack, error)
	CreatePack(ctx context.Context, pack models.Pack) (*models.Pack, error)
	UpdatePack(ctx context.Context, pack models.Pack) (*models.Pack, error)
	AssignCourses(ctx context.Context, packID string, courseIDs []string) error
	DeletePack(ctx context.Context, id string) error

	ListCourses(ctx context.Context) ([]*models.Course, error)
	ListPublishedCoursesByPack(ctx context.Context, packID string) ([]*models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	CreateCourse(ctx context.Context, course models.Course) (*models.Course, error)
	UpdateCourse(ctx context.Context, course models.Course) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) error

	ListLessons(ctx context.Context, courseID string) ([]*models.Lesson, error)
	GetLesson(ctx context.Context, id string) (*models.Lesson, error)
	CreateLesson(ctx context.Context, lesson models.Lesson) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, lesson models.Lesson) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, id string) error

	ListCourseImages(ctx context.Context, courseID string) ([]*models.CourseImage, error)
	CreateCourseImage(ctx context.Context, image models.CourseImage) (*models.CourseImage, error)
	DeleteCourseImage(ctx context.Context, courseID, id string) error

	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	InvalidatePrefix(prefix string) error
}

// MediaStore хранилище загружаемых файлов.
type MediaStore interface {
	Upload(ctx context.Context, folder, filename string, file io.Reader) (*mediastore.Asset, error)
}

// Upload файл из multipart-формы.
type Upload struct {
	Filename string
	Body     io.Reader
}

type CatalogService struct {
	repo     Repository
	cache    Cache
	media    MediaStore
	cacheTTL time.Duration
	log      *slog.Logger
}

func NewCatalogService(repo Repository, cache Cache, media MediaStore, cacheTTL time.Duration, log *slog.Logger) *CatalogService {
	return &CatalogService{repo: repo, cache: cache, media: media, cacheTTL: cacheTTL, log: log}
}

// Categories возвращает все категории.
func (s *CatalogService) Categories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	if s.fromCache(keyCategories, &categories) {
		return categories, nil
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("services.catalog.Categories: %w", err)
	}
	s.toCache(keyCategories, categories)
	return categories, nil
}

// CategoryPacks возвращает опубликованные паки категории по id или slug.
func (s *CatalogService) CategoryPacks(ctx context.Context, ref string) ([]*models.Pack, error) {
	const op = "services.catalog.CategoryPacks"

	key := fmt.Sprintf(keyCategoryPacks, ref)
	var packs []*models.Pack
	if s.fromCache(key, &packs) {
		return packs, nil
	}

	var category *models.Category
	var err error
	if _, parseErr := uuid.Parse(ref); parseErr == nil {
		category, err = s.repo.GetCategory(ctx, ref)
	} else {
		category, err = s.repo.GetCategoryBySlug(ctx, ref)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	packs, err = s.repo.ListPublishedPacksByCategory(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.toCache(key, packs)
	return packs, nil
}

// PackDetail возвращает опубликованный пак с его опубликованными курсами.
func (s *CatalogService) PackDetail(ctx context.Context, packID string) (*models.PackDetail, error) {
	const op = "services.catalog.PackDetail"

	key := fmt.Sprintf(keyPackDetail, packID)
	var detail models.PackDetail
	if s.fromCache(key, &detail) {
		return &detail, nil
	}

	pack, err := s.PublishedPack(ctx, packID)
	if err != nil {
		return nil, err
	}
	courses, err := s.repo.ListPublishedCoursesByPack(ctx, pack.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	detail = models.PackDetail{Pack: pack, Courses: courses}
	s.toCache(key, detail)
	return &detail, nil
}

// PublishedPack возвращает пак, доступный для покупки.
func (s *CatalogService) PublishedPack(ctx context.Context, packID string) (*models.Pack, error) {
	pack, err := s.repo.GetPack(ctx, packID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !pack.IsPublished) {
		return nil, apperr.NotFound("pack not found")
	}
	if err != nil {
		return nil, fmt.Errorf("services.catalog.PublishedPack: %w", err)
	}
	return pack, nil
}

// PackCourses возвращает опубликованные курсы пака.
func (s *CatalogService) PackCourses(ctx context.Context, packID string) ([]*models.Course, error) {
	detail, err := s.PackDetail(ctx, packID)
	if err != nil {
		return nil, err
	}
	return detail.Courses, nil
}

func (s *CatalogService) fromCache(key string, dst any) bool {
	found, err := s.cache.Get(key, dst)
	if err != nil {
		s.log.Warn("cache read failed", slog.String("key", key), sl.Err(err))
		return false
	}
	return found
}

func (s *CatalogService) toCache(key string, value any) {
	if err := s.cache.Set(key, value, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache catalog entry", slog.String("key", key), sl.Err(err))
	}
}

func (s *CatalogService) invalidate() {
	if err := s.cache.InvalidatePrefix(cachePrefix); err != nil {
		s.log.Warn("failed to invalidate catalog cache", sl.Err(err))
	}
}

func (s *CatalogService) upload(ctx context.Context, folder string, u *Upload) (string, error) {
	asset, err := s.media.Upload(ctx, folder, u.Filename, u.Body)
	if errors.Is(err, mediastore.ErrNotConfigured) {
		return "", apperr.Wrap(apperr.KindValidation, "file uploads are not configured", err)
	}
	if err != nil {
		return "", fmt.Errorf("services.catalog.upload: %w", err)
	}
	return asset.URL, nil
}

// mapWriteErr переводит ошибки хранилища при записи в ошибки бизнес-уровня.
func mapWriteErr(op, entity string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(entity + " not found")
	case errors.Is(err, repository.ErrAlreadyExists):
		return apperr.Conflict(entity + " already exists")
	case errors.Is(err, repository.ErrInUse):
		return apperr.Conflict(entity + " has purchases, unpublish it instead")
	case errors.Is(err, repository.ErrInvalidReference):
		return apperr.Validation("referenced entity does not exist")
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
