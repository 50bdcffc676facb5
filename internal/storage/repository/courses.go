package repository

import (
	"context"
	"database/sql"

	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

const courseColumns = `c.id, c.pack_id, c.category_id, COALESCE(cat.name, ''), c.title, c.description,
	c.level, c.is_published, c.coach_name, c.created_at`

const courseFrom = ` FROM courses c LEFT JOIN categories cat ON cat.id = c.category_id`

func scanCourse(row rowScanner) (*models.Course, error) {
	c := &models.Course{}
	var packID, categoryID sql.NullString
	if err := row.Scan(&c.ID, &packID, &categoryID, &c.CategoryName, &c.Title, &c.Description,
		&c.Level, &c.IsPublished, &c.CoachName, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.PackID = fromNull(packID)
	c.CategoryID = fromNull(categoryID)
	return c, nil
}

func (s *Storage) queryCourses(ctx context.Context, op, query string, args ...any) ([]*models.Course, error) {
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

	result := make([]*models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
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

// ListCourses возвращает все курсы с названием категории.
func (s *Storage) ListCourses(ctx context.Context) ([]*models.Course, error) {
	return s.queryCourses(ctx, "storage.ListCourses",
		`SELECT `+courseColumns+courseFrom+` ORDER BY c.created_at DESC`)
}

// ListPublishedCoursesByPack возвращает опубликованные курсы пака.
func (s *Storage) ListPublishedCoursesByPack(ctx context.Context, packID string) ([]*models.Course, error) {
	return s.queryCourses(ctx, "storage.ListPublishedCoursesByPack",
		`SELECT `+courseColumns+courseFrom+` WHERE c.pack_id = $1 AND c.is_published ORDER BY c.created_at`, packID)
}

// GetCourse возвращает курс по ID.
func (s *Storage) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	const op = "storage.GetCourse"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	c, err := scanCourse(s.q(ctx).QueryRowContext(ctx, `SELECT `+courseColumns+courseFrom+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return c, nil
}

// CreateCourse добавляет курс.
func (s *Storage) CreateCourse(ctx context.Context, course models.Course) (*models.Course, error) {
	const op = "storage.CreateCourse"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var id string
	err := s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO courses (pack_id, category_id, title, description, level, is_published, coach_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		nullString(course.PackID), nullString(course.CategoryID), course.Title, course.Description,
		course.Level, course.IsPublished, course.CoachName).Scan(&id)
	if err != nil {
		return nil, wrap(op, err)
	}
	return s.GetCourse(ctx, id)
}

// UpdateCourse перезаписывает поля курса.
func (s *Storage) UpdateCourse(ctx context.Context, course models.Course) (*models.Course, error) {
	const op = "storage.UpdateCourse"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE courses
		 SET pack_id = $2, category_id = $3, title = $4, description = $5, level = $6,
		     is_published = $7, coach_name = $8
		 WHERE id = $1`,
		course.ID, nullString(course.PackID), nullString(course.CategoryID), course.Title,
		course.Description, course.Level, course.IsPublished, course.CoachName)
	if err != nil {
		return nil, wrap(op, err)
	}
	if err := affectedOrNotFound(op, res); err != nil {
		return nil, err
	}
	return s.GetCourse(ctx, course.ID)
}

// DeleteCourse удаляет курс вместе с уроками и изображениями.
func (s *Storage) DeleteCourse(ctx context.Context, id string) error {
	const op = "storage.DeleteCourse"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}

const lessonColumns = `id, course_id, title, content, video_url, position, created_at`

func scanLesson(row rowScanner) (*models.Lesson, error) {
	l := &models.Lesson{}
	if err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.VideoURL, &l.Position, &l.CreatedAt); err != nil {
		return nil, err
	}
	return l, nil
}

// ListLessons возвращает уроки курса по позиции.
func (s *Storage) ListLessons(ctx context.Context, courseID string) ([]*models.Lesson, error) {
	const op = "storage.ListLessons"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE course_id = $1 ORDER BY position, created_at`, courseID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Lesson, 0)
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, l)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// GetLesson возвращает урок по ID.
func (s *Storage) GetLesson(ctx context.Context, id string) (*models.Lesson, error) {
	const op = "storage.GetLesson"
	l, err := scanLesson(s.q(ctx).QueryRowContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return l, nil
}

// CreateLesson добавляет урок в курс.
func (s *Storage) CreateLesson(ctx context.Context, lesson models.Lesson) (*models.Lesson, error) {
	const op = "storage.CreateLesson"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	l, err := scanLesson(s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO lessons (course_id, title, content, video_url, position)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+lessonColumns,
		lesson.CourseID, lesson.Title, lesson.Content, lesson.VideoURL, lesson.Position))
	if err != nil {
		return nil, wrap(op, err)
	}
	return l, nil
}

// UpdateLesson перезаписывает поля урока.
func (s *Storage) UpdateLesson(ctx context.Context, lesson models.Lesson) (*models.Lesson, error) {
	const op = "storage.UpdateLesson"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	l, err := scanLesson(s.q(ctx).QueryRowContext(ctx,
		`UPDATE lessons SET title = $2, content = $3, video_url = $4, position = $5
		 WHERE id = $1
		 RETURNING `+lessonColumns,
		lesson.ID, lesson.Title, lesson.Content, lesson.VideoURL, lesson.Position))
	if err != nil {
		return nil, wrap(op, err)
	}
	return l, nil
}

// DeleteLesson удаляет урок.
func (s *Storage) DeleteLesson(ctx context.Context, id string) error {
	const op = "storage.DeleteLesson"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}

// ListCourseImages возвращает изображения курса по позиции.
func (s *Storage) ListCourseImages(ctx context.Context, courseID string) ([]*models.CourseImage, error) {
	const op = "storage.ListCourseImages"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT id, course_id, image_url, pos FROM course_images WHERE course_id = $1 ORDER BY pos, created_at`, courseID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.CourseImage, 0)
	for rows.Next() {
		img := &models.CourseImage{}
		if err := rows.Scan(&img.ID, &img.CourseID, &img.ImageURL, &img.Pos); err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, img)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// CreateCourseImage добавляет изображение курса.
func (s *Storage) CreateCourseImage(ctx context.Context, image models.CourseImage) (*models.CourseImage, error) {
	const op = "storage.CreateCourseImage"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	img := &models.CourseImage{}
	err := s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO course_images (course_id, image_url, pos) VALUES ($1, $2, $3)
		 RETURNING id, course_id, image_url, pos`,
		image.CourseID, image.ImageURL, image.Pos).Scan(&img.ID, &img.CourseID, &img.ImageURL, &img.Pos)
	if err != nil {
		return nil, wrap(op, err)
	}
	return img, nil
}

// DeleteCourseImage удаляет изображение курса.
func (s *Storage) DeleteCourseImage(ctx context.Context, courseID, id string) error {
	const op = "storage.DeleteCourseImage"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM course_images WHERE id = $1 AND course_id = $2`, id, courseID)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}
