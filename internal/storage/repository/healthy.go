package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

const healthyColumns = `id, name, description, duration_days, features, images, is_published, created_at`

func scanHealthyPackage(row rowScanner) (*models.HealthyPackage, error) {
	h := &models.HealthyPackage{}
	var features, images []byte
	if err := row.Scan(&h.ID, &h.Name, &h.Description, &h.DurationDays, &features, &images,
		&h.IsPublished, &h.CreatedAt); err != nil {
		return nil, err
	}
	h.Features = make([]models.HealthyFeature, 0)
	h.Images = make([]models.HealthyImage, 0)
	if err := json.Unmarshal(features, &h.Features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	if err := json.Unmarshal(images, &h.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	return h, nil
}

func encodeHealthy(h models.HealthyPackage) (features, images []byte, err error) {
	if h.Features == nil {
		h.Features = []models.HealthyFeature{}
	}
	if h.Images == nil {
		h.Images = []models.HealthyImage{}
	}
	if features, err = json.Marshal(h.Features); err != nil {
		return nil, nil, err
	}
	if images, err = json.Marshal(h.Images); err != nil {
		return nil, nil, err
	}
	return features, images, nil
}

// ListHealthyPackages возвращает healthy-пакеты; publishedOnly оставляет только опубликованные.
func (s *Storage) ListHealthyPackages(ctx context.Context, publishedOnly bool) ([]*models.HealthyPackage, error) {
	const op = "storage.ListHealthyPackages"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+healthyColumns+` FROM healthy_packages
		 WHERE is_published OR NOT $1
		 ORDER BY created_at DESC`, publishedOnly)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.HealthyPackage, 0)
	for rows.Next() {
		h, err := scanHealthyPackage(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, h)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// GetHealthyPackage возвращает healthy-пакет по ID.
func (s *Storage) GetHealthyPackage(ctx context.Context, id string) (*models.HealthyPackage, error) {
	const op = "storage.GetHealthyPackage"
	h, err := scanHealthyPackage(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+healthyColumns+` FROM healthy_packages WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return h, nil
}

// CreateHealthyPackage добавляет healthy-пакет.
func (s *Storage) CreateHealthyPackage(ctx context.Context, pkg models.HealthyPackage) (*models.HealthyPackage, error) {
	const op = "storage.CreateHealthyPackage"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	features, images, err := encodeHealthy(pkg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	h, err := scanHealthyPackage(s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO healthy_packages (name, description, duration_days, features, images, is_published)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+healthyColumns,
		pkg.Name, pkg.Description, pkg.DurationDays, features, images, pkg.IsPublished))
	if err != nil {
		return nil, wrap(op, err)
	}
	return h, nil
}

// UpdateHealthyPackage перезаписывает поля healthy-пакета.
func (s *Storage) UpdateHealthyPackage(ctx context.Context, pkg models.HealthyPackage) (*models.HealthyPackage, error) {
	const op = "storage.UpdateHealthyPackage"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	features, images, err := encodeHealthy(pkg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	h, err := scanHealthyPackage(s.q(ctx).QueryRowContext(ctx,
		`UPDATE healthy_packages
		 SET name = $2, description = $3, duration_days = $4, features = $5, images = $6, is_published = $7
		 WHERE id = $1
		 RETURNING `+healthyColumns,
		pkg.ID, pkg.Name, pkg.Description, pkg.DurationDays, features, images, pkg.IsPublished))
	if err != nil {
		return nil, wrap(op, err)
	}
	return h, nil
}

// DeleteHealthyPackage удаляет healthy-пакет.
func (s *Storage) DeleteHealthyPackage(ctx context.Context, id string) error {
	const op = "storage.DeleteHealthyPackage"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM healthy_packages WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}

// GetHealthyPrice возвращает текущий прайс. Пока прайс не задан, список тарифов пуст.
func (s *Storage) GetHealthyPrice(ctx context.Context) (*models.HealthyPrice, error) {
	const op = "storage.GetHealthyPrice"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	price := &models.HealthyPrice{Plans: make([]models.HealthyPlanPrice, 0)}
	var plans []byte
	err := s.q(ctx).QueryRowContext(ctx, `SELECT plans, updated_at FROM healthy_prices WHERE id = 1`).
		Scan(&plans, &price.UpdatedAt)
	if err != nil {
		if mapErr(err) == ErrNotFound {
			return price, nil
		}
		return nil, wrap(op, err)
	}
	if err := json.Unmarshal(plans, &price.Plans); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return price, nil
}

// SaveHealthyPrice заменяет прайс целиком.
func (s *Storage) SaveHealthyPrice(ctx context.Context, plans []models.HealthyPlanPrice) (*models.HealthyPrice, error) {
	const op = "storage.SaveHealthyPrice"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []models.HealthyPlanPrice{}
	}

	raw, err := json.Marshal(plans)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO healthy_prices (id, plans, updated_at) VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET plans = EXCLUDED.plans, updated_at = now()`, raw); err != nil {
		return nil, wrap(op, err)
	}
	return s.GetHealthyPrice(ctx)
}
