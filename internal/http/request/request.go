// Package request разбор входящих HTTP-запросов: JSON-тела с валидацией,
// параметры пути и файлы multipart-форм.
package request

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/sl"
)

// MaxUploadSize предел размера multipart-формы в памяти.
const MaxUploadSize = 32 << 20

// DecodeJSON читает тело запроса в dst и проверяет его валидатором.
// При ошибке ответ уже записан, и вызывающий должен просто вернуться.
func DecodeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteStatus(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return Validate(w, r, log, validate, dst)
}

// Validate проверяет dst и отвечает 400 при нарушениях.
func Validate(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, dst any) bool {
	err := validate.Struct(dst)
	if err == nil {
		return true
	}
	log.Warn("validation failed", sl.Err(err))
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(verrs))
		return false
	}
	response.WriteStatus(w, r, http.StatusBadRequest, "invalid request body")
	return false
}

// DecodeForm читает тело из JSON либо, для multipart-формы, из поля data.
// Файлы формы после вызова доступны через FormFile и FormFiles.
func DecodeForm(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return DecodeJSON(w, r, log, validate, dst)
	}
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		response.WriteStatus(w, r, http.StatusBadRequest, "invalid multipart form")
		return false
	}
	if data := r.FormValue("data"); data != "" {
		if err := json.Unmarshal([]byte(data), dst); err != nil {
			log.Error("failed to decode form data", sl.Err(err))
			response.WriteStatus(w, r, http.StatusBadRequest, "invalid request body")
			return false
		}
	}
	return Validate(w, r, log, validate, dst)
}

// IDParam возвращает параметр пути name, если это UUID.
func IDParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if _, err := uuid.Parse(id); err != nil {
		response.WriteStatus(w, r, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return id, true
}

// File — файл, полученный из multipart-формы.
type File struct {
	Filename string
	Body     io.Reader
	closer   io.Closer
}

// Close освобождает файл.
func (f *File) Close() error {
	if f == nil || f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// FormFile возвращает файл поля field или nil, если файла нет.
func FormFile(r *http.Request, field string) (*File, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &File{Filename: header.Filename, Body: file, closer: file}, nil
}

// FormFiles возвращает все файлы поля field.
func FormFiles(r *http.Request, field string) ([]*File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	files := make([]*File, 0, len(headers))
	for _, h := range headers {
		f, err := open(h)
		if err != nil {
			CloseAll(files)
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// CloseAll закрывает файлы.
func CloseAll(files []*File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func open(h *multipart.FileHeader) (*File, error) {
	file, err := h.Open()
	if err != nil {
		return nil, err
	}
	return &File{Filename: h.Filename, Body: file, closer: file}, nil
}
