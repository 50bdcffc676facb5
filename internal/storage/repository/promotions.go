package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

const promotionColumns = `id, type, value, valid_from, valid_to, created_at`

func scanPromotion(row rowScanner) (*models.Promotion, error) {
	p := &models.Promotion{}
	var from, to sql.NullTime
	if err := row.Scan(&p.ID, &p.Type, &p.Value, &from, &to, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ValidFrom = timePtr(from)
	p.ValidTo = timePtr(to)
	return p, nil
}

// FindActivePromotion возвращает самую свежую акцию, окно которой содержит now.
// Если таких нет, возвращает ErrNotFound.
func (s *Storage) FindActivePromotion(ctx context.Context, now time.Time) (*models.Promotion, error) {
	const op = "storage.FindActivePromotion"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPromotion(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+promotionColumns+` FROM promotions
		 WHERE (valid_from IS NULL OR valid_from <= $1)
		   AND (valid_to IS NULL OR valid_to >= $1)
		 ORDER BY created_at DESC
		 LIMIT 1`, now))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// ListPromotions возвращает все акции.
func (s *Storage) ListPromotions(ctx context.Context) ([]*models.Promotion, error) {
	const op = "storage.ListPromotions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+promotionColumns+` FROM promotions ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Promotion, 0)
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// GetPromotion возвращает акцию по ID.
func (s *Storage) GetPromotion(ctx context.Context, id string) (*models.Promotion, error) {
	const op = "storage.GetPromotion"
	p, err := scanPromotion(s.q(ctx).QueryRowContext(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// CreatePromotion добавляет акцию.
func (s *Storage) CreatePromotion(ctx context.Context, promo models.Promotion) (*models.Promotion, error) {
	const op = "storage.CreatePromotion"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPromotion(s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO promotions (type, value, valid_from, valid_to) VALUES ($1, $2, $3, $4)
		 RETURNING `+promotionColumns,
		promo.Type, promo.Value, promo.ValidFrom, promo.ValidTo))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// UpdatePromotion перезаписывает поля акции.
func (s *Storage) UpdatePromotion(ctx context.Context, promo models.Promotion) (*models.Promotion, error) {
	const op = "storage.UpdatePromotion"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPromotion(s.q(ctx).QueryRowContext(ctx,
		`UPDATE promotions SET type = $2, value = $3, valid_from = $4, valid_to = $5
		 WHERE id = $1
		 RETURNING `+promotionColumns,
		promo.ID, promo.Type, promo.Value, promo.ValidFrom, promo.ValidTo))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// DeletePromotion удаляет акцию.
func (s *Storage) DeletePromotion(ctx context.Context, id string) error {
	const op = "storage.DeletePromotion"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}
