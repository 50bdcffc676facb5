// Package images управление изображениями курса: загрузка файлом или добавление по URL.
package images

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
	ImageURL string `json:"image_url" validate:"omitempty,url"`
	Pos      int    `json:"pos" validate:"gte=0"`
}

type Service interface {
	ListCourseImages(ctx context.Context, courseID string) ([]*models.CourseImage, error)
	AddCourseImage(ctx context.Context, image models.CourseImage, file *services.Upload) (*models.CourseImage, error)
	DeleteCourseImage(ctx context.Context, courseID, id string) error
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
// @Summary Изображения курса
// @Tags Admin
// @Produce json
// @Param courseId path string true "id курса"
// @Success 200 {object} response.Response{data=[]models.CourseImage}
// @Router /admin/courses/{courseId}/images [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.images.List")
	courseID, ok := request.IDParam(w, r, "courseId")
	if !ok {
		return
	}
	list, err := h.service.ListCourseImages(r.Context(), courseID)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Create godoc
// @Summary Добавить изображение курса
// @Description Файл image в multipart-форме или image_url в JSON.
// @Tags Admin
// @Accept json,mpfd
// @Produce json
// @Param courseId path string true "id курса"
// @Success 201 {object} response.Response{data=models.CourseImage}
// @Failure 400 {object} response.ErrorResponse "Нет ни файла, ни URL"
// @Router /admin/courses/{courseId}/images [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.images.Create")
	courseID, ok := request.IDParam(w, r, "courseId")
	if !ok {
		return
	}
	var req CreateRequest
	if !request.DecodeForm(w, r, log, h.validate, &req) {
		return
	}
	file, err := request.FormFile(r, "image")
	if err != nil {
		log.Error("failed to read image", sl.Err(err))
		response.WriteStatus(w, r, http.StatusBadRequest, "invalid image file")
		return
	}
	defer file.Close()

	var upload *services.Upload
	if file != nil {
		upload = &services.Upload{Filename: file.Filename, Body: file.Body}
	}
	created, err := h.service.AddCourseImage(r.Context(), models.CourseImage{
		CourseID: courseID,
		ImageURL: req.ImageURL,
		Pos:      req.Pos,
	}, upload)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(created))
}

// Delete godoc
// @Summary Удалить изображение курса
// @Tags Admin
// @Param courseId path string true "id курса"
// @Param id path string true "id изображения"
// @Success 200 {object} response.Response
// @Router /admin/courses/{courseId}/images/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.images.Delete")
	courseID, ok := request.IDParam(w, r, "courseId")
	if !ok {
		return
	}
	id, ok := request.IDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCourseImage(r.Context(), courseID, id); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}
