// Package course отдаёт курс с уроками и изображениями при наличии доступа.
package course

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
	CourseContent(ctx context.Context, caller jwt.Identity, courseID string) (*models.CourseDetail, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// lessonOutline — урок без содержимого.
type lessonOutline struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type courseResponse struct {
	Course  *models.Course        `json:"course"`
	Lessons []lessonOutline       `json:"lessons"`
	Images  []*models.CourseImage `json:"images"`
}

// ServeHTTP godoc
// @Summary Курс
// @Description Курс со списком уроков (название и позиция) и изображениями.
// @Tags Courses
// @Produce json
// @Param id path string true "id курса"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 404 {object} response.ErrorResponse "Курс не найден"
// @Router /courses/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.courses.course"
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

	detail, err := h.service.CourseContent(r.Context(), *identity, courseID)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	outline := make([]lessonOutline, 0, len(detail.Lessons))
	for _, l := range detail.Lessons {
		outline = append(outline, lessonOutline{ID: l.ID, Title: l.Title, Position: l.Position})
	}
	render.JSON(w, r, response.OKWithData(courseResponse{
		Course:  detail.Course,
		Lessons: outline,
		Images:  detail.Images,
	}))
}
