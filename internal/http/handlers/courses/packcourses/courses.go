// Package packcourses отдаёт курсы пака пользователю с доступом к паку.
package packcourses

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/elearning-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/elearning-platform/internal/http/request"
	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

type Catalog interface {
	PackCourses(ctx context.Context, packID string) ([]*models.Course, error)
}

type Access interface {
	CanAccessPack(ctx context.Context, userID, packID string) (bool, error)
}

type Handler struct {
	log     *slog.Logger
	catalog Catalog
	access  Access
}

func New(log *slog.Logger, catalog Catalog, access Access) *Handler {
	return &Handler{log: log, catalog: catalog, access: access}
}

// ServeHTTP godoc
// @Summary Курсы пака
// @Description Требует завершённой покупки пака или действующей подписки на него.
// @Tags Courses
// @Produce json
// @Param id path string true "id пака"
// @Success 200 {object} response.Response{data=[]models.Course}
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 404 {object} response.ErrorResponse "Пак не найден"
// @Router /courses/packs/{id}/courses [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.courses.packcourses"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WriteStatus(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	packID, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}

	courses, err := h.catalog.PackCourses(r.Context(), packID)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	if identity.Role != models.RoleAdmin {
		allowed, err := h.access.CanAccessPack(r.Context(), identity.ID, packID)
		if err != nil {
			response.WriteError(w, r, log, err)
			return
		}
		if !allowed {
			response.WriteError(w, r, log, apperr.Forbidden("purchase or active subscription required"))
			return
		}
	}
	render.JSON(w, r, response.OKWithData(courses))
}
