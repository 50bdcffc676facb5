// Package paypalwebhook принимает события PayPal об оплате.
//
// Событие обрабатывается идемпотентно: повторная доставка того же события
// не продлевает подписку второй раз. Несопоставимые события отклоняются
// с 400 или 404, и PayPal повторит доставку позже.
package paypalwebhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/sl"
	services "github.com/magabrotheeeer/elearning-platform/internal/services/webhook"
)

// maxBodySize предел размера тела события.
const maxBodySize = 1 << 20

type Service interface {
	Reconcile(ctx context.Context, headers http.Header, body []byte) (*services.Result, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Вебхук PayPal
// @Description Обрабатывает PAYMENT.CAPTURE.COMPLETED: завершает покупку и продлевает подписку в одной транзакции.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=services.Result}
// @Failure 400 {object} response.ErrorResponse "Событие не сопоставлено"
// @Failure 404 {object} response.ErrorResponse "Ожидающая покупка не найдена"
// @Router /subscriptions/paypal-webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriptions.paypalwebhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		response.WriteStatus(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Reconcile(r.Context(), r.Header, body)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("webhook handled", slog.String("event_id", result.EventID), slog.String("result", result.Status))
	render.JSON(w, r, response.OKWithData(result))
}
