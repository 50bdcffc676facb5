// Package lessons управление уроками курса.
// Видео урока можно загрузить файлом video в multipart-форме.
package lessons

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
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content"`
	VideoURL string `json:"video_url" validate:"omitempty,url"`
	Position int    `json:"position" validate:"gte=0"`
}

type Service interface {
	ListLessons(ctx context.Context, courseID string) ([]*models.Lesson, error)
	CreateLesson(ctx context.Context, lesson models.Lesson, video *services.Upload) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, id string, patch models.LessonPatch, video *services.Upload) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, id string) error
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
// @Summary Уроки курса
// @Tags Admin
// @Produce json
// @Param courseId path string true "id курса"
// @Success 200 {object} response.Response{data=[]models.Lesson}
// @Router /admin/courses/{courseId}/lessons [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.lessons.List")
	courseID, ok := request.IDParam(w, r, "courseId")
	if !ok {
		return
	}
	list, err := h.service.ListLessons(r.Context(), courseID)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Create godoc
// @Summary Создать урок
// @Tags Admin
// @Accept json,mpfd
// @Produce json
// @Param courseId path string true "id курса"
// @Param request body CreateRequest true "Урок"
// @Success 201 {object} response.Response{data=models.Lesson}
// @Router /admin/courses/{courseId}/lessons [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.lessons.Create")
	courseID, ok := request.IDParam(w, r, "courseId")
	if !ok {
		return
	}
	var req CreateRequest
	if !request.DecodeForm(w, r, log, h.validate, &req) {
		return
	}
	video, ok := videoUpload(w, r, log)
	if !ok {
		return
	}
	defer video.Close()

	created, err := h.service.CreateLesson(r.Context(), models.Lesson{
		CourseID: courseID,
		Title:    req.Title,
		Content:  req.Content,
		VideoURL: req.VideoURL,
		Position: req.Position,
	}, toUpload(video))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(created))
}

// Update godoc
// @Summary Изменить урок
// @Tags Admin
// @Accept json,mpfd
// @Produce json
// @Param id path string true "id урока"
// @Param request body models.LessonPatch true "Поля"
// @Success 200 {object} response.Response{data=models.Lesson}
// @Router /admin/lessons/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.lessons.Update")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	var patch models.LessonPatch
	if !request.DecodeForm(w, r, log, h.validate, &patch) {
		return
	}
	video, ok := videoUpload(w, r, log)
	if !ok {
		return
	}
	defer video.Close()

	updated, err := h.service.UpdateLesson(r.Context(), id, patch, toUpload(video))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(updated))
}

// Delete godoc
// @Summary Удалить урок
// @Tags Admin
// @Param id path string true "id урока"
// @Success 200 {object} response.Response
// @Router /admin/lessons/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.lessons.Delete")
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteLesson(r.Context(), id); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

func videoUpload(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*request.File, bool) {
	file, err := request.FormFile(r, "video")
	if err != nil {
		log.Error("failed to read video", sl.Err(err))
		response.WriteStatus(w, r, http.StatusBadRequest, "invalid video file")
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
