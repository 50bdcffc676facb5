// Package services содержит логику бизнес-уровня для регистрации, входа
// и восстановления пароля.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/password"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/sl"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/token"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/rabbitmq"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя; занятый email даёт repository.ErrAlreadyExists.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)

	// GetUserByEmail возвращает пользователя по email или repository.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	ResetPassword(ctx context.Context, id, passwordHash string) error
}

// Subscriptions возвращает подписки пользователя, предварительно истекая просроченные.
type Subscriptions interface {
	ListForUser(ctx context.Context, userID string) ([]*models.Subscription, error)
}

// Publisher публикует уведомления в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Session — результат успешной регистрации или входа.
type Session struct {
	Token         string                 `json:"token"`
	User          *models.User           `json:"user"`
	Subscriptions []*models.Subscription `json:"subscriptions"`
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users       UserRepository
	subs        Subscriptions
	jwtMaker    jwt.Maker
	publisher   Publisher
	frontendURL string
	resetTTL    time.Duration
	log         *slog.Logger
	now         func() time.Time
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, subs Subscriptions, jwtMaker jwt.Maker, publisher Publisher,
	frontendURL string, resetTTL time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{
		users:       users,
		subs:        subs,
		jwtMaker:    jwtMaker,
		publisher:   publisher,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		resetTTL:    resetTTL,
		log:         log,
		now:         time.Now,
	}
}

// Register создает нового пользователя с ролью "user" и сразу выпускает токен.
func (s *AuthService) Register(ctx context.Context, email, name, rawPassword string) (*Session, error) {
	const op = "services.auth.Register"
	if len(rawPassword) < password.MinLength {
		return nil, apperr.Validation(fmt.Sprintf("password must be at least %d characters", password.MinLength))
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.CreateUser(ctx, models.User{
		Email:        normalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		Role:         models.RoleUser, // дефолтная роль при регистрации
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil, apperr.Conflict("email already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tok, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("user_id", user.ID))
	return &Session{Token: tok, User: user, Subscriptions: []*models.Subscription{}}, nil
}

// Login проверяет пароль, истекает просроченные подписки и выпускает JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "services.auth.Login"
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subs, err := s.subs.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tok, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{Token: tok, User: user, Subscriptions: subs}, nil
}

// ValidateToken проверяет JWT и возвращает данные пользователя из него.
func (s *AuthService) ValidateToken(_ context.Context, tok string) (*jwt.Identity, error) {
	claims, err := s.jwtMaker.ParseToken(tok)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "invalid or expired token", err)
	}
	return &claims.Identity, nil
}

// ForgotPassword выпускает токен сброса и отправляет ссылку на почту.
// Неизвестный email не считается ошибкой.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	const op = "services.auth.ForgotPassword"
	log := s.log.With(slog.String("op", op))

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		log.Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	raw, hash, err := token.Generate()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	expires := s.now().Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, user.ID, hash, expires); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.PasswordResetMessage{
		Email:    user.Email,
		Name:     user.Name,
		ResetURL: s.frontendURL + "/reset-password?token=" + url.QueryEscape(raw),
		Expires:  expires,
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingPasswordReset, msg); err != nil {
		log.Error("failed to publish password reset", slog.String("user_id", user.ID), sl.Err(err))
	}
	return nil
}

// ResetPassword устанавливает новый пароль по действующему токену сброса.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	const op = "services.auth.ResetPassword"
	if len(newPassword) < password.MinLength {
		return apperr.Validation(fmt.Sprintf("password must be at least %d characters", password.MinLength))
	}

	user, err := s.users.GetUserByResetToken(ctx, token.Hash(rawToken), s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Validation("invalid or expired reset token")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.ResetPassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("password reset", slog.String("user_id", user.ID))
	return nil
}

func (s *AuthService) issue(user *models.User) (string, error) {
	return s.jwtMaker.GenerateToken(jwt.Identity{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
		Name:  user.Name,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
