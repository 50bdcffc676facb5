// Package users управление пользователями из панели администратора.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/elearning-platform/internal/http/request"
	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

// PatchRequest изменяемые администратором поля пользователя.
type PatchRequest struct {
	Name *string `json:"name" validate:"omitempty,min=2"`
	Role *string `json:"role" validate:"omitempty,oneof=user admin"`
}

type Service interface {
	List(ctx context.Context) ([]*models.User, error)
	AdminUpdate(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// List godoc
// @Summary Пользователи
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response{data=[]models.User}
// @Router /admin/users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.users.List")
	list, err := h.service.List(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Update godoc
// @Summary Изменить пользователя
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "id пользователя"
// @Param request body PatchRequest true "Поля"
// @Success 200 {object} response.Response{data=models.User}
// @Router /admin/users/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.users.Update")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	var req PatchRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	user, err := h.service.AdminUpdate(r.Context(), id, models.UserPatch{Name: req.Name, Role: req.Role})
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("user updated by admin", slog.String("user_id", id))
	render.JSON(w, r, response.OKWithData(user))
}

// Delete godoc
// @Summary Удалить пользователя
// @Tags Admin
// @Param id path string true "id пользователя"
// @Success 200 {object} response.Response
// @Router /admin/users/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.users.Delete")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("user deleted", slog.String("user_id", id))
	render.JSON(w, r, response.OK())
}
