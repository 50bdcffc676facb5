// Package healthy управление healthy-пакетами и их прайсом.
// Изображения пакета загружаются файлами images в multipart-форме.
package healthy

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
	services "github.com/magabrotheeeer/elearning-platform/internal/services/healthy"
)

type CreateRequest struct {
	Name         string                  `json:"name" validate:"required,min=2"`
	Description  string                  `json:"description"`
	DurationDays int                     `json:"duration_days" validate:"gte=0"`
	Features     []models.HealthyFeature `json:"features" validate:"dive"`
	Images       []models.HealthyImage   `json:"images"`
	IsPublished  bool                    `json:"is_published"`
}

// PriceRequest новый прайс: список тарифов monthly и quarterly.
type PriceRequest struct {
	Plans []models.HealthyPlanPrice `json:"plans" validate:"required,dive"`
}

type Service interface {
	List(ctx context.Context) ([]*models.HealthyPackage, error)
	Create(ctx context.Context, pkg models.HealthyPackage, images []services.Image) (*models.HealthyPackage, error)
	Update(ctx context.Context, id string, patch models.HealthyPackagePatch, images []services.Image) (*models.HealthyPackage, error)
	Delete(ctx context.Context, id string) error
	Price(ctx context.Context) (*models.HealthyPrice, error)
	SetPrice(ctx context.Context, plans []models.HealthyPlanPrice) (*models.HealthyPrice, error)
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
// @Summary Healthy-пакеты (админ)
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response{data=[]models.HealthyPackage}
// @Router /admin/healthy-packages [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.healthy.List")
	list, err := h.service.List(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Create godoc
// @Summary Создать healthy-пакет
// @Tags Admin
// @Accept json,mpfd
// @Produce json
// @Param request body CreateRequest true "Пакет"
// @Success 201 {object} response.Response{data=models.HealthyPackage}
// @Router /admin/healthy-packages [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.healthy.Create")
	var req CreateRequest
	if !request.DecodeForm(w, r, log, h.validate, &req) {
		return
	}
	files, ok := imageFiles(w, r, log)
	if !ok {
		return
	}
	defer request.CloseAll(files)

	created, err := h.service.Create(r.Context(), models.HealthyPackage{
		Name:         req.Name,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		Features:     req.Features,
		Images:       req.Images,
		IsPublished:  req.IsPublished,
	}, toImages(files))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(created))
}

// Update godoc
// @Summary Изменить healthy-пакет
// @Tags Admin
// @Accept json,mpfd
// @Produce json
// @Param id path string true "id пакета"
// @Param request body models.HealthyPackagePatch true "Поля"
// @Success 200 {object} response.Response{data=models.HealthyPackage}
// @Router /admin/healthy-packages/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.healthy.Update")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	var patch models.HealthyPackagePatch
	if !request.DecodeForm(w, r, log, h.validate, &patch) {
		return
	}
	files, ok := imageFiles(w, r, log)
	if !ok {
		return
	}
	defer request.CloseAll(files)

	updated, err := h.service.Update(r.Context(), id, patch, toImages(files))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(updated))
}

// Delete godoc
// @Summary Удалить healthy-пакет
// @Tags Admin
// @Param id path string true "id пакета"
// @Success 200 {object} response.Response
// @Router /admin/healthy-packages/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.healthy.Delete")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

// GetPrice godoc
// @Summary Прайс healthy-линейки (админ)
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response{data=models.HealthyPrice}
// @Router /admin/healthy-prices [get]
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.healthy.GetPrice")
	price, err := h.service.Price(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(price))
}

// SetPrice godoc
// @Summary Заменить прайс healthy-линейки
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body PriceRequest true "Тарифы"
// @Success 200 {object} response.Response{data=models.HealthyPrice}
// @Router /admin/healthy-prices [put]
func (h *Handler) SetPrice(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.healthy.SetPrice")
	var req PriceRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	price, err := h.service.SetPrice(r.Context(), req.Plans)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("healthy price replaced", slog.Int("plans", len(price.Plans)))
	render.JSON(w, r, response.OKWithData(price))
}

func imageFiles(w http.ResponseWriter, r *http.Request, log *slog.Logger) ([]*request.File, bool) {
	files, err := request.FormFiles(r, "images")
	if err != nil {
		log.Error("failed to read images", sl.Err(err))
		response.WriteStatus(w, r, http.StatusBadRequest, "invalid image files")
		return nil, false
	}
	return files, true
}

func toImages(files []*request.File) []services.Image {
	images := make([]services.Image, 0, len(files))
	for _, f := range files {
		images = append(images, services.Image{Filename: f.Filename, Body: f.Body})
	}
	return images
}
