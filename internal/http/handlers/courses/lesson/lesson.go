// Package lesson отдаёт полное содержимое урока при наличии доступа к курсу.
package lesson

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/elearning-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/elearning-platform/internal/http/request"
	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

type Service interface {
	Lesson(ctx context.Context, caller jwt.Identity, courseID, lessonID string) (*models.Lesson, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Урок
// @Tags Courses
// @Produce json
// @Param id path string true "id курса"
// @Param lessonId path string true "id урока"
// @Success 200 {object} response.Response{data=models.Lesson}
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 404 {object} response.ErrorResponse "Урок не найден"
// @Router /courses/{id}/lessons/{lessonId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.courses.lesson"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WriteStatus(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	courseID, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	lessonID, ok := request.IDParam(w, r, "lessonId")
	if !ok {
		return
	}

	lesson, err := h.service.Lesson(r.Context(), *identity, courseID, lessonID)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(lesson))
}
