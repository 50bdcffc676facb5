// Package middlewarectx содержит HTTP middleware платформы.
//
// Auth извлекает токен из cookie или заголовка Authorization, проверяет его
// и кладёт личность пользователя в контекст запроса. RequireRole ограничивает
// доступ по роли, администратор проходит любую проверку роли.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/sl"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// IdentityKey — ключ личности пользователя в контексте.
const IdentityKey Key = "identity"

// Authenticator описывает сервис проверки токена.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Identity, error)
}

// Auth возвращает middleware, который требует валидный токен.
// Токен берётся из cookie cookieName, а при его отсутствии из заголовка Authorization: Bearer.
func Auth(auth Authenticator, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Auth"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr := TokenFromRequest(r, cookieName)
			if tokenStr == "" {
				log.Warn("missing token")
				response.WriteStatus(w, r, http.StatusUnauthorized, "authentication required")
				return
			}

			identity, err := auth.ValidateToken(r.Context(), tokenStr)
			if err != nil || identity == nil {
				log.Warn("invalid or expired token", sl.Err(err))
				response.WriteStatus(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole пропускает запрос, если роль пользователя равна role или пользователь администратор.
// Должен стоять после Auth.
func RequireRole(role string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				response.WriteStatus(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			if identity.Role != role && identity.Role != models.RoleAdmin {
				log.Warn("role check failed",
					slog.String("user_id", identity.ID),
					slog.String("role", identity.Role),
					slog.String("required", role),
				)
				response.WriteStatus(w, r, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest возвращает токен из cookie либо из заголовка Authorization.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// WithIdentity кладёт личность пользователя в контекст.
func WithIdentity(ctx context.Context, identity *jwt.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFrom достаёт личность пользователя из контекста.
func IdentityFrom(ctx context.Context) (*jwt.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*jwt.Identity)
	return identity, ok && identity != nil
}
