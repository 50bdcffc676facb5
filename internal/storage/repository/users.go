package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

const userColumns = `id, email, name, password_hash, role, COALESCE(reset_token_hash, ''),
	reset_token_expires_at, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var resetExpires sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.ResetTokenHash, &resetExpires, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ResetTokenExpiresAt = timePtr(resetExpires)
	return u, nil
}

// CreateUser сохраняет нового пользователя. При занятом email возвращает ErrAlreadyExists.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO users (email, name, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + userColumns
	u, err := scanUser(s.q(ctx).QueryRowContext(ctx, query, user.Email, user.Name, user.PasswordHash, user.Role))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.q(ctx).QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.q(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// UpdateUser частично обновляет пользователя.
func (s *Storage) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	const op = "storage.UpdateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users
			  SET name = COALESCE($2, name),
			      email = COALESCE($3, email),
			      role = COALESCE($4, role)
			  WHERE id = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.q(ctx).QueryRowContext(ctx, query, id, patch.Name, patch.Email, patch.Role))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// UpdatePassword заменяет хэш пароля.
func (s *Storage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const op = "storage.UpdatePassword"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}

// DeleteUser удаляет пользователя вместе с его покупками и подписками.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.DeleteUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}

// SetResetToken сохраняет хэш токена сброса пароля и срок его действия.
func (s *Storage) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	const op = "storage.SetResetToken"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE users SET reset_token_hash = $2, reset_token_expires_at = $3 WHERE id = $1`,
		id, tokenHash, expiresAt)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}

// GetUserByResetToken ищет пользователя с действующим токеном сброса.
func (s *Storage) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	const op = "storage.GetUserByResetToken"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users
			  WHERE reset_token_hash = $1 AND reset_token_expires_at > $2`
	u, err := scanUser(s.q(ctx).QueryRowContext(ctx, query, tokenHash, now))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// ResetPassword устанавливает новый пароль и гасит токен сброса.
func (s *Storage) ResetPassword(ctx context.Context, id, passwordHash string) error {
	const op = "storage.ResetPassword"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE users
		 SET password_hash = $2, reset_token_hash = NULL, reset_token_expires_at = NULL
		 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}
