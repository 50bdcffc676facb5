// Package services healthy-пакеты: отдельная продуктовая линейка с собственным прайсом.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/mediastore"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

const folderHealthy = "healthy"

type Repository interface {
	ListHealthyPackages(ctx context.Context, publishedOnly bool) ([]*models.HealthyPackage, error)
	GetHealthyPackage(ctx context.Context, id string) (*models.HealthyPackage, error)
	CreateHealthyPackage(ctx context.Context, pkg models.HealthyPackage) (*models.HealthyPackage, error)
	UpdateHealthyPackage(ctx context.Context, pkg models.HealthyPackage) (*models.HealthyPackage, error)
	DeleteHealthyPackage(ctx context.Context, id string) error
	GetHealthyPrice(ctx context.Context) (*models.HealthyPrice, error)
	SaveHealthyPrice(ctx context.Context, plans []models.HealthyPlanPrice) (*models.HealthyPrice, error)
}

type MediaStore interface {
	Upload(ctx context.Context, folder, filename string, file io.Reader) (*mediastore.Asset, error)
}

// Image загружаемое изображение пакета.
type Image struct {
	Filename string
	Body     io.Reader
}

type HealthyService struct {
	repo  Repository
	media MediaStore
	log   *slog.Logger
}

func NewHealthyService(repo Repository, media MediaStore, log *slog.Logger) *HealthyService {
	return &HealthyService{repo: repo, media: media, log: log}
}

// Published возвращает опубликованные пакеты для витрины.
func (s *HealthyService) Published(ctx context.Context) ([]*models.HealthyPackage, error) {
	pkgs, err := s.repo.ListHealthyPackages(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("services.healthy.Published: %w", err)
	}
	return pkgs, nil
}

func (s *HealthyService) List(ctx context.Context) ([]*models.HealthyPackage, error) {
	pkgs, err := s.repo.ListHealthyPackages(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("services.healthy.List: %w", err)
	}
	return pkgs, nil
}

// Create создаёт пакет; загруженные изображения добавляются после переданных URL.
func (s *HealthyService) Create(ctx context.Context, pkg models.HealthyPackage, images []Image) (*models.HealthyPackage, error) {
	const op = "services.healthy.Create"
	if pkg.DurationDays < 0 {
		return nil, apperr.Validation("duration_days must not be negative")
	}
	uploaded, err := s.upload(ctx, images, len(pkg.Images))
	if err != nil {
		return nil, err
	}
	pkg.Images = append(pkg.Images, uploaded...)

	created, err := s.repo.CreateHealthyPackage(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("healthy package created", slog.String("id", created.ID), slog.Int("images", len(created.Images)))
	return created, nil
}

func (s *HealthyService) Update(ctx context.Context, id string, patch models.HealthyPackagePatch, images []Image) (*models.HealthyPackage, error) {
	const op = "services.healthy.Update"
	pkg, err := s.repo.GetHealthyPackage(ctx, id)
	if err != nil {
		return nil, mapErr(op, err)
	}
	patch.Apply(pkg)
	uploaded, err := s.upload(ctx, images, len(pkg.Images))
	if err != nil {
		return nil, err
	}
	pkg.Images = append(pkg.Images, uploaded...)

	updated, err := s.repo.UpdateHealthyPackage(ctx, *pkg)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return updated, nil
}

func (s *HealthyService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteHealthyPackage(ctx, id); err != nil {
		return mapErr("services.healthy.Delete", err)
	}
	return nil
}

// Price возвращает текущий прайс линейки.
func (s *HealthyService) Price(ctx context.Context) (*models.HealthyPrice, error) {
	price, err := s.repo.GetHealthyPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("services.healthy.Price: %w", err)
	}
	return price, nil
}

// SetPrice заменяет прайс. Каждый тариф (monthly, quarterly) может встречаться один раз.
func (s *HealthyService) SetPrice(ctx context.Context, plans []models.HealthyPlanPrice) (*models.HealthyPrice, error) {
	seen := make(map[string]bool, len(plans))
	for _, p := range plans {
		if p.Plan != "monthly" && p.Plan != "quarterly" {
			return nil, apperr.Validation(fmt.Sprintf("unknown healthy plan %q", p.Plan))
		}
		if p.PriceCents < 0 {
			return nil, apperr.Validation("price_cents must not be negative")
		}
		if seen[p.Plan] {
			return nil, apperr.Validation(fmt.Sprintf("duplicate healthy plan %q", p.Plan))
		}
		seen[p.Plan] = true
	}
	price, err := s.repo.SaveHealthyPrice(ctx, plans)
	if err != nil {
		return nil, fmt.Errorf("services.healthy.SetPrice: %w", err)
	}
	return price, nil
}

func (s *HealthyService) upload(ctx context.Context, images []Image, offset int) ([]models.HealthyImage, error) {
	result := make([]models.HealthyImage, 0, len(images))
	for i, img := range images {
		asset, err := s.media.Upload(ctx, folderHealthy, img.Filename, img.Body)
		if errors.Is(err, mediastore.ErrNotConfigured) {
			return nil, apperr.Wrap(apperr.KindValidation, "file uploads are not configured", err)
		}
		if err != nil {
			return nil, fmt.Errorf("services.healthy.upload: %w", err)
		}
		result = append(result, models.HealthyImage{URL: asset.URL, Position: offset + i})
	}
	return result, nil
}

func mapErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("healthy package not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}
