// Package categorypacks отдаёт опубликованные паки категории.
// Категория задаётся slug или id.
package categorypacks

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

type Service interface {
	CategoryPacks(ctx context.Context, ref string) ([]*models.Pack, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Паки категории
// @Tags Courses
// @Produce json
// @Param category path string true "slug или id категории"
// @Success 200 {object} response.Response{data=[]models.Pack}
// @Failure 404 {object} response.ErrorResponse "Категория не найдена"
// @Router /courses/categories/{category}/packs [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.courses.categorypacks"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	packs, err := h.service.CategoryPacks(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(packs))
}
