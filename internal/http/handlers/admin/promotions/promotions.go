// Package promotions управление акциями.
// Тип акции: percentage или fixed; пустой тип определяется по величине скидки.
package promotions

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/elearning-platform/internal/http/request"
	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

type CreateRequest struct {
	Type      string     `json:"type" validate:"omitempty,oneof=percentage fixed"`
	Value     int64      `json:"value" validate:"gte=0"`
	ValidFrom *time.Time `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to"`
}

// PatchRequest изменяемые поля; отсутствующие поля не меняются.
type PatchRequest struct {
	Type      *string    `json:"type" validate:"omitempty,oneof=percentage fixed"`
	Value     *int64     `json:"value" validate:"omitempty,gte=0"`
	ValidFrom *time.Time `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to"`
}

type Service interface {
	List(ctx context.Context) ([]*models.Promotion, error)
	Get(ctx context.Context, id string) (*models.Promotion, error)
	Create(ctx context.Context, promo models.Promotion) (*models.Promotion, error)
	Update(ctx context.Context, promo models.Promotion) (*models.Promotion, error)
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
// @Summary Акции
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Promotion}
// @Router /admin/promotions [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.promotions.List")
	list, err := h.service.List(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Create godoc
// @Summary Создать акцию
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body CreateRequest true "Акция"
// @Success 201 {object} response.Response{data=models.Promotion}
// @Router /admin/promotions [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.promotions.Create")
	var req CreateRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	created, err := h.service.Create(r.Context(), models.Promotion{
		Type:      req.Type,
		Value:     req.Value,
		ValidFrom: req.ValidFrom,
		ValidTo:   req.ValidTo,
	})
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(created))
}

// Update godoc
// @Summary Изменить акцию
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "id акции"
// @Param request body PatchRequest true "Поля"
// @Success 200 {object} response.Response{data=models.Promotion}
// @Router /admin/promotions/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.promotions.Update")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	var req PatchRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	promo, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	if req.Type != nil {
		promo.Type = *req.Type
	}
	if req.Value != nil {
		promo.Value = *req.Value
	}
	if req.ValidFrom != nil {
		promo.ValidFrom = req.ValidFrom
	}
	if req.ValidTo != nil {
		promo.ValidTo = req.ValidTo
	}

	updated, err := h.service.Update(r.Context(), *promo)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(updated))
}

// Delete godoc
// @Summary Удалить акцию
// @Tags Admin
// @Param id path string true "id акции"
// @Success 200 {object} response.Response
// @Router /admin/promotions/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.promotions.Delete")
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
