// Package courses управление курсами.
package courses

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

type CreateRequest struct {
	PackID      string `json:"pack_id" validate:"omitempty,uuid"`
	CategoryID  string `json:"category_id" validate:"omitempty,uuid"`
	Title       string `json:"title" validate:"required,min=2"`
	Description string `json:"description"`
	Level       string `json:"level"`
	IsPublished bool   `json:"is_published"`
	CoachName   string `json:"coach_name"`
}

type Service interface {
	ListCourses(ctx context.Context) ([]*models.Course, error)
	CreateCourse(ctx context.Context, course models.Course) (*models.Course, error)
	UpdateCourse(ctx context.Context, id string, patch models.CoursePatch) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) error
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
// @Summary Курсы (админ)
// @Description Все курсы с названием категории.
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Course}
// @Router /admin/courses [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.courses.List")
	list, err := h.service.ListCourses(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Create godoc
// @Summary Создать курс
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body CreateRequest true "Курс"
// @Success 201 {object} response.Response{data=models.Course}
// @Router /admin/courses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.courses.Create")
	var req CreateRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	created, err := h.service.CreateCourse(r.Context(), models.Course{
		PackID:      req.PackID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		IsPublished: req.IsPublished,
		CoachName:   req.CoachName,
	})
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(created))
}

// Update godoc
// @Summary Изменить курс
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "id курса"
// @Param request body models.CoursePatch true "Поля"
// @Success 200 {object} response.Response{data=models.Course}
// @Router /admin/courses/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.courses.Update")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	var patch models.CoursePatch
	if !request.DecodeJSON(w, r, log, h.validate, &patch) {
		return
	}
	updated, err := h.service.UpdateCourse(r.Context(), id, patch)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(updated))
}

// Delete godoc
// @Summary Удалить курс
// @Tags Admin
// @Param id path string true "id курса"
// @Success 200 {object} response.Response
// @Router /admin/courses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.courses.Delete")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCourse(r.Context(), id); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}
