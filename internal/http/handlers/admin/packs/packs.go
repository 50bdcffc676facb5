// Package packs управление паками: тарифы и состав курсов.
package packs

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
	CategoryID  string        `json:"category_id" validate:"required,uuid"`
	Name        string        `json:"name" validate:"required,min=2"`
	Description string        `json:"description"`
	IsPublished bool          `json:"is_published"`
	Plans       []models.Plan `json:"plans" validate:"dive"`
	CourseIDs   []string      `json:"courses" validate:"dive,uuid"`
}

type Service interface {
	ListPacks(ctx context.Context) ([]*models.Pack, error)
	GetPack(ctx context.Context, id string) (*models.Pack, error)
	CreatePack(ctx context.Context, pack models.Pack) (*models.Pack, error)
	UpdatePack(ctx context.Context, id string, patch models.PackPatch) (*models.Pack, error)
	DeletePack(ctx context.Context, id string) error
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
// @Summary Паки (админ)
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Pack}
// @Router /admin/packs [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.packs.List")
	list, err := h.service.ListPacks(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Get godoc
// @Summary Пак (админ)
// @Tags Admin
// @Produce json
// @Param id path string true "id пака"
// @Success 200 {object} response.Response{data=models.Pack}
// @Router /admin/packs/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.packs.Get")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	pack, err := h.service.GetPack(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(pack))
}

// Create godoc
// @Summary Создать пак
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body CreateRequest true "Пак"
// @Success 201 {object} response.Response{data=models.Pack}
// @Failure 400 {object} response.ErrorResponse "Повторяющиеся метки тарифов или несуществующие курсы"
// @Router /admin/packs [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.packs.Create")
	var req CreateRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	created, err := h.service.CreatePack(r.Context(), models.Pack{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		IsPublished: req.IsPublished,
		Plans:       req.Plans,
		CourseIDs:   req.CourseIDs,
	})
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("pack created", slog.String("pack_id", created.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(created))
}

// Update godoc
// @Summary Изменить пак
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "id пака"
// @Param request body models.PackPatch true "Поля"
// @Success 200 {object} response.Response{data=models.Pack}
// @Router /admin/packs/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.packs.Update")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	var patch models.PackPatch
	if !request.DecodeJSON(w, r, log, h.validate, &patch) {
		return
	}
	updated, err := h.service.UpdatePack(r.Context(), id, patch)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(updated))
}

// Delete godoc
// @Summary Удалить пак
// @Tags Admin
// @Param id path string true "id пака"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "По паку есть покупки"
// @Router /admin/packs/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.packs.Delete")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeletePack(r.Context(), id); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("pack deleted", slog.String("pack_id", id))
	render.JSON(w, r, response.OK())
}
