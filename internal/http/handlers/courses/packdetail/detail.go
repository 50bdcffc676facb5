// Package packdetail отдаёт пак с тарифами и опубликованными курсами.
package packdetail

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/elearning-platform/internal/http/request"
	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

type Service interface {
	PackDetail(ctx context.Context, packID string) (*models.PackDetail, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Пак
// @Tags Courses
// @Produce json
// @Param id path string true "id пака"
// @Success 200 {object} response.Response{data=models.PackDetail}
// @Failure 404 {object} response.ErrorResponse "Пак не найден"
// @Router /courses/packs/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.courses.packdetail"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	packID, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.service.PackDetail(r.Context(), packID)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(detail))
}
