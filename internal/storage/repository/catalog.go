package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

const categoryColumns = `id, name, slug, image_url, created_at`

func scanCategory(row rowScanner) (*models.Category, error) {
	c := &models.Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ImageURL, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCategories возвращает все категории по имени.
func (s *Storage) ListCategories(ctx context.Context) ([]*models.Category, error) {
	const op = "storage.ListCategories"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// GetCategory возвращает категорию по ID.
func (s *Storage) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	const op = "storage.GetCategory"
	c, err := scanCategory(s.q(ctx).QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return c, nil
}

// GetCategoryBySlug возвращает категорию по slug.
func (s *Storage) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	const op = "storage.GetCategoryBySlug"
	c, err := scanCategory(s.q(ctx).QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if err != nil {
		return nil, wrap(op, err)
	}
	return c, nil
}

// CreateCategory добавляет категорию.
func (s *Storage) CreateCategory(ctx context.Context, category models.Category) (*models.Category, error) {
	const op = "storage.CreateCategory"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO categories (name, slug, image_url) VALUES ($1, $2, $3) RETURNING ` + categoryColumns
	c, err := scanCategory(s.q(ctx).QueryRowContext(ctx, query, category.Name, category.Slug, category.ImageURL))
	if err != nil {
		return nil, wrap(op, err)
	}
	return c, nil
}

// UpdateCategory перезаписывает поля категории.
func (s *Storage) UpdateCategory(ctx context.Context, category models.Category) (*models.Category, error) {
	const op = "storage.UpdateCategory"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE categories SET name = $2, slug = $3, image_url = $4 WHERE id = $1 RETURNING ` + categoryColumns
	c, err := scanCategory(s.q(ctx).QueryRowContext(ctx, query, category.ID, category.Name, category.Slug, category.ImageURL))
	if err != nil {
		return nil, wrap(op, err)
	}
	return c, nil
}

// DeleteCategory удаляет категорию. Паки и курсы категории остаются без неё.
func (s *Storage) DeleteCategory(ctx context.Context, id string) error {
	const op = "storage.DeleteCategory"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}

const packColumns = `p.id, p.category_id, p.name, p.description, p.is_published, p.plans, p.created_at,
	COALESCE((SELECT json_agg(c.id ORDER BY c.created_at) FROM courses c WHERE c.pack_id = p.id), '[]'::json)`

func scanPack(row rowScanner) (*models.Pack, error) {
	p := &models.Pack{}
	var categoryID sql.NullString
	var plans, courseIDs []byte
	if err := row.Scan(&p.ID, &categoryID, &p.Name, &p.Description, &p.IsPublished, &plans, &p.CreatedAt, &courseIDs); err != nil {
		return nil, err
	}
	p.CategoryID = fromNull(categoryID)
	p.Plans = make([]models.Plan, 0)
	if len(plans) > 0 {
		if err := json.Unmarshal(plans, &p.Plans); err != nil {
			return nil, fmt.Errorf("decode plans: %w", err)
		}
	}
	p.CourseIDs = make([]string, 0)
	if len(courseIDs) > 0 {
		if err := json.Unmarshal(courseIDs, &p.CourseIDs); err != nil {
			return nil, fmt.Errorf("decode course ids: %w", err)
		}
	}
	return p, nil
}

func (s *Storage) queryPacks(ctx context.Context, op, query string, args ...any) ([]*models.Pack, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Pack, 0)
	for rows.Next() {
		p, err := scanPack(rows)
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

// ListPacks возвращает все паки.
func (s *Storage) ListPacks(ctx context.Context) ([]*models.Pack, error) {
	return s.queryPacks(ctx, "storage.ListPacks",
		`SELECT `+packColumns+` FROM packs p ORDER BY p.created_at DESC`)
}

// ListPublishedPacksByCategory возвращает опубликованные паки категории.
func (s *Storage) ListPublishedPacksByCategory(ctx context.Context, categoryID string) ([]*models.Pack, error) {
	return s.queryPacks(ctx, "storage.ListPublishedPacksByCategory",
		`SELECT `+packColumns+` FROM packs p
		 WHERE p.category_id = $1 AND p.is_published
		 ORDER BY p.created_at`, categoryID)
}

// GetPack возвращает пак по ID.
func (s *Storage) GetPack(ctx context.Context, id string) (*models.Pack, error) {
	const op = "storage.GetPack"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPack(s.q(ctx).QueryRowContext(ctx, `SELECT `+packColumns+` FROM packs p WHERE p.id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// CreatePack добавляет пак с тарифами.
func (s *Storage) CreatePack(ctx context.Context, pack models.Pack) (*models.Pack, error) {
	const op = "storage.CreatePack"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	plans, err := json.Marshal(pack.Plans)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var id string
	err = s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO packs (category_id, name, description, is_published, plans)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		nullString(pack.CategoryID), pack.Name, pack.Description, pack.IsPublished, plans).Scan(&id)
	if err != nil {
		return nil, wrap(op, err)
	}
	return s.GetPack(ctx, id)
}

// UpdatePack перезаписывает поля пака.
func (s *Storage) UpdatePack(ctx context.Context, pack models.Pack) (*models.Pack, error) {
	const op = "storage.UpdatePack"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	plans, err := json.Marshal(pack.Plans)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE packs
		 SET category_id = $2, name = $3, description = $4, is_published = $5, plans = $6
		 WHERE id = $1`,
		pack.ID, nullString(pack.CategoryID), pack.Name, pack.Description, pack.IsPublished, plans)
	if err != nil {
		return nil, wrap(op, err)
	}
	if err := affectedOrNotFound(op, res); err != nil {
		return nil, err
	}
	return s.GetPack(ctx, pack.ID)
}

// AssignCourses делает courseIDs полным списком курсов пака.
func (s *Storage) AssignCourses(ctx context.Context, packID string, courseIDs []string) error {
	const op = "storage.AssignCourses"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if courseIDs == nil {
		courseIDs = []string{}
	}

	if _, err := s.q(ctx).ExecContext(ctx,
		`UPDATE courses SET pack_id = NULL WHERE pack_id = $1 AND NOT (id::text = ANY($2::text[]))`,
		packID, courseIDs); err != nil {
		return wrap(op, err)
	}
	if _, err := s.q(ctx).ExecContext(ctx,
		`UPDATE courses SET pack_id = $1 WHERE id::text = ANY($2::text[])`,
		packID, courseIDs); err != nil {
		return wrap(op, err)
	}
	return nil
}

// DeletePack удаляет пак. Пак с покупками не удаляется: ErrInUse.
func (s *Storage) DeletePack(ctx context.Context, id string) error {
	const op = "storage.DeletePack"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM packs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(mapErr(err), ErrInvalidReference) {
			return fmt.Errorf("%s: %w", op, ErrInUse)
		}
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}
