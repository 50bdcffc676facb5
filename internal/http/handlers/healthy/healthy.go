// Package healthy публичные обработчики healthy-линейки: опубликованные пакеты и прайс.
package healthy

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

type Service interface {
	Published(ctx context.Context) ([]*models.HealthyPackage, error)
	Price(ctx context.Context) (*models.HealthyPrice, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Packages godoc
// @Summary Healthy-пакеты
// @Tags Healthy
// @Produce json
// @Success 200 {object} response.Response{data=[]models.HealthyPackage}
// @Router /healthy-packages [get]
func (h *Handler) Packages(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", "handlers.healthy.Packages"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	pkgs, err := h.service.Published(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(pkgs))
}

// Prices godoc
// @Summary Прайс healthy-линейки
// @Tags Healthy
// @Produce json
// @Success 200 {object} response.Response{data=models.HealthyPrice}
// @Router /healthy-prices [get]
func (h *Handler) Prices(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", "handlers.healthy.Prices"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	price, err := h.service.Price(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(price))
}
