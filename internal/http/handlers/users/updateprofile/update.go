// Package updateprofile изменяет имя и email текущего пользователя.
package updateprofile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/elearning-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/elearning-platform/internal/http/request"
	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

// Request — изменяемые поля профиля; отсутствующие поля не меняются.
type Request struct {
	Name  *string `json:"name" validate:"omitempty,min=2"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type Service interface {
	UpdateProfile(ctx context.Context, userID string, name, email *string) (*models.User, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Изменить профиль
// @Tags Users
// @Accept json
// @Produce json
// @Param request body Request true "Новые значения"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 409 {object} response.ErrorResponse "Email занят"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Router /users/me [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.updateprofile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WriteStatus(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req Request
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), identity.ID, req.Name, req.Email)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("profile updated", slog.String("user_id", user.ID))
	render.JSON(w, r, response.OKWithData(user))
}
