// Package capture подтверждает одобренный покупателем заказ PayPal.
// Продление подписки происходит позже, при получении события вебхука.
package capture

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/elearning-platform/internal/http/request"
	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/paymentprovider"
)

type Request struct {
	OrderID string `json:"order_id" validate:"required"`
}

// Response — итог подтверждения заказа.
type Response struct {
	OrderID   string `json:"order_id"`
	CaptureID string `json:"capture_id"`
	Status    string `json:"status"`
}

type Service interface {
	Capture(ctx context.Context, orderID string) (*paymentprovider.Capture, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Подтвердить заказ
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body Request true "id заказа PayPal"
// @Success 200 {object} response.Response{data=Response}
// @Failure 400 {object} response.ErrorResponse "Заказ нельзя подтвердить"
// @Router /subscriptions/capture [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriptions.capture"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	captured, err := h.service.Capture(r.Context(), req.OrderID)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(Response{
		OrderID:   captured.OrderID,
		CaptureID: captured.CaptureID,
		Status:    captured.Status,
	}))
}
