// Package categories управление категориями каталога.
// Запросы на запись принимают JSON либо multipart-форму с полем data и файлом image.
package categories

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/elearning-platform/internal/http/request"
	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/sl"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	services "github.com/magabrotheeeer/elearning-platform/internal/services/catalog"
)

type CreateRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Slug     string `json:"slug" validate:"required,min=2"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

type Service interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	CreateCategory(ctx context.Context, category models.Category, image *services.Upload) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch, image *services.Upload) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
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
// @Summary Категории (админ)
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Category}
// @Router /admin/categories [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.categories.List")
	list, err := h.service.ListCategories(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Create godoc
// @Summary Создать категорию
// @Tags Admin
// @Accept json,mpfd
// @Produce json
// @Param request body CreateRequest true "Категория"
// @Success 201 {object} response.Response{data=models.Category}
// @Failure 409 {object} response.ErrorResponse "Slug занят"
// @Router /admin/categories [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.categories.Create")
	var req CreateRequest
	if !request.DecodeForm(w, r, log, h.validate, &req) {
		return
	}
	image, ok := imageUpload(w, r, log)
	if !ok {
		return
	}
	if image != nil {
		defer image.Close()
	}

	created, err := h.service.CreateCategory(r.Context(), models.Category{
		Name:     req.Name,
		Slug:     req.Slug,
		ImageURL: req.ImageURL,
	}, toUpload(image))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(created))
}

// Update godoc
// @Summary Изменить категорию
// @Tags Admin
// @Accept json,mpfd
// @Produce json
// @Param id path string true "id категории"
// @Param request body models.CategoryPatch true "Поля"
// @Success 200 {object} response.Response{data=models.Category}
// @Router /admin/categories/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.categories.Update")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	var patch models.CategoryPatch
	if !request.DecodeForm(w, r, log, h.validate, &patch) {
		return
	}
	image, ok := imageUpload(w, r, log)
	if !ok {
		return
	}
	if image != nil {
		defer image.Close()
	}

	updated, err := h.service.UpdateCategory(r.Context(), id, patch, toUpload(image))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(updated))
}

// Delete godoc
// @Summary Удалить категорию
// @Tags Admin
// @Param id path string true "id категории"
// @Success 200 {object} response.Response
// @Router /admin/categories/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.categories.Delete")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

func imageUpload(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*request.File, bool) {
	file, err := request.FormFile(r, "image")
	if err != nil {
		log.Error("failed to read image", sl.Err(err))
		response.WriteStatus(w, r, http.StatusBadRequest, "invalid image file")
		return nil, false
	}
	return file, true
}

func toUpload(f *request.File) *services.Upload {
	if f == nil {
		return nil
	}
	return &services.Upload{Filename: f.Filename, Body: f.Body}
}
