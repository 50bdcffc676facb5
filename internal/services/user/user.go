// Package services профиль пользователя и управление пользователями администратором.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/password"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

type Repository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	DeleteUser(ctx context.Context, id string) error
}

type Subscriptions interface {
	ListForUser(ctx context.Context, userID string) ([]*models.Subscription, error)
}

type UserService struct {
	repo Repository
	subs Subscriptions
	log  *slog.Logger
}

func NewUserService(repo Repository, subs Subscriptions, log *slog.Logger) *UserService {
	return &UserService{repo: repo, subs: subs, log: log}
}

// Profile возвращает пользователя и его подписки после ленивого истечения.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "services.user.Profile"
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, mapErr(op, err)
	}
	subs, err := s.subs.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Profile{User: user, Subscriptions: subs}, nil
}

// UpdateProfile меняет имя и email пользователя.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, name, email *string) (*models.User, error) {
	const op = "services.user.UpdateProfile"
	patch := models.UserPatch{Name: name}
	if email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*email))
		patch.Email = &normalized
	}
	user, err := s.repo.UpdateUser(ctx, userID, patch)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return user, nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	const op = "services.user.ChangePassword"
	if len(next) < password.MinLength {
		return apperr.Validation(fmt.Sprintf("password must be at least %d characters", password.MinLength))
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return mapErr(op, err)
	}
	if err := password.CompareHash(user.PasswordHash, current); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return apperr.Unauthorized("current password is incorrect")
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	hashed, err := password.GetHash(next)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hashed); err != nil {
		return mapErr(op, err)
	}
	s.log.Info("password changed", slog.String("user_id", userID))
	return nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("services.user.List: %w", err)
	}
	return users, nil
}

// AdminUpdate меняет имя и роль пользователя.
func (s *UserService) AdminUpdate(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	const op = "services.user.AdminUpdate"
	if patch.Role != nil && *patch.Role != models.RoleUser && *patch.Role != models.RoleAdmin {
		return nil, apperr.Validation("role must be user or admin")
	}
	user, err := s.repo.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, mapErr(op, err)
	}
	s.log.Info("user updated by admin", slog.String("user_id", id), slog.String("role", user.Role))
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return mapErr("services.user.Delete", err)
	}
	return nil
}

func mapErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, repository.ErrAlreadyExists):
		return apperr.Conflict("email already registered")
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
