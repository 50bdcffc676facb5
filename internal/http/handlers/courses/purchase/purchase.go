// Package purchase оформляет покупку тарифа пака через платёжный шлюз.
//
// Обработчик используется и для первичной покупки из каталога, и для
// продления подписки; в первом случае повторная покупка при действующем
// доступе отклоняется с 409.
package purchase

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/elearning-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/elearning-platform/internal/http/request"
	"github.com/magabrotheeeer/elearning-platform/internal/http/response"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	services "github.com/magabrotheeeer/elearning-platform/internal/services/purchase"
)

// Request — выбранный тариф. PackID берётся из пути, если маршрут его содержит.
type Request struct {
	PackID    string `json:"pack_id" validate:"omitempty,uuid"`
	PlanLabel string `json:"plan_label" validate:"required"`
}

type Service interface {
	Checkout(ctx context.Context, req services.CheckoutRequest) (*models.Checkout, error)
}

type Handler struct {
	log              *slog.Logger
	service          Service
	rejectIfEntitled bool
	validate         *validator.Validate
}

// New создаёт обработчик. rejectIfEntitled запрещает покупку при уже действующем доступе к паку.
func New(log *slog.Logger, service Service, rejectIfEntitled bool) *Handler {
	return &Handler{
		log:              log,
		service:          service,
		rejectIfEntitled: rejectIfEntitled,
		validate:         validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Купить пак
// @Description Создаёт ожидающую покупку и заказ в PayPal. Цена учитывает действующую акцию.
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "id пака"
// @Param request body Request true "Тариф"
// @Success 201 {object} response.Response{data=models.Checkout}
// @Failure 400 {object} response.ErrorResponse "Неизвестный тариф"
// @Failure 404 {object} response.ErrorResponse "Пак не найден"
// @Failure 409 {object} response.ErrorResponse "Доступ уже есть"
// @Router /courses/packs/{id}/purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.courses.purchase"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WriteStatus(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req Request
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	if chi.URLParam(r, "id") != "" {
		packID, ok := request.IDParam(w, r, "id")
		if !ok {
			return
		}
		req.PackID = packID
	}
	if req.PackID == "" {
		response.WriteStatus(w, r, http.StatusBadRequest, "pack_id is required")
		return
	}

	checkout, err := h.service.Checkout(r.Context(), services.CheckoutRequest{
		UserID:           identity.ID,
		PackID:           req.PackID,
		PlanLabel:        req.PlanLabel,
		RejectIfEntitled: h.rejectIfEntitled,
	})
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	log.Info("checkout created",
		slog.String("user_id", identity.ID),
		slog.String("purchase_id", checkout.PurchaseID),
		slog.Int64("amount_cents", checkout.AmountCents),
	)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(checkout))
}
