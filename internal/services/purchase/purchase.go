// Package services оформление покупки пака: расчёт цены, ожидающая покупка
// и заказ в платёжном шлюзе.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/metrics"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/sl"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/paymentprovider"
	promotion "github.com/magabrotheeeer/elearning-platform/internal/services/promotion"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

type Repository interface {
	GetPack(ctx context.Context, id string) (*models.Pack, error)
	FailPendingPurchases(ctx context.Context, userID, packID string) (int64, error)
	CreatePurchase(ctx context.Context, purchase models.PackPurchase) (*models.PackPurchase, error)
	SetPurchaseOrderID(ctx context.Context, id, orderID string) error
	MarkPurchaseFailed(ctx context.Context, id string) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Pricer interface {
	Quote(ctx context.Context, priceCents int64) (*promotion.Quote, error)
}

type Entitlements interface {
	CanAccessPack(ctx context.Context, userID, packID string) (bool, error)
}

// Gateway платёжный шлюз.
type Gateway interface {
	CreateOrder(ctx context.Context, p paymentprovider.OrderParams) (*paymentprovider.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paymentprovider.Capture, error)
}

// CheckoutRequest параметры оформления покупки.
// RejectIfEntitled запрещает покупку пака, к которому уже есть доступ.
type CheckoutRequest struct {
	UserID           string
	PackID           string
	PlanLabel        string
	RejectIfEntitled bool
}

type PurchaseService struct {
	repo        Repository
	pricer      Pricer
	access      Entitlements
	gateway     Gateway
	metrics     *metrics.Metrics
	currency    string
	frontendURL string
	log         *slog.Logger
}

func NewPurchaseService(repo Repository, pricer Pricer, access Entitlements, gateway Gateway, m *metrics.Metrics,
	currency, frontendURL string, log *slog.Logger) *PurchaseService {
	return &PurchaseService{
		repo:        repo,
		pricer:      pricer,
		access:      access,
		gateway:     gateway,
		metrics:     m,
		currency:    currency,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
	}
}

// Checkout создаёт ожидающую покупку по тарифу пака и заказ в шлюзе на сумму со скидкой.
// Ошибки поиска пака и тарифа возвращаются до обращения к шлюзу.
func (s *PurchaseService) Checkout(ctx context.Context, req CheckoutRequest) (*models.Checkout, error) {
	const op = "services.purchase.Checkout"
	log := s.log.With(slog.String("op", op), slog.String("user_id", req.UserID), slog.String("pack_id", req.PackID))

	pack, err := s.repo.GetPack(ctx, req.PackID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !pack.IsPublished) {
		return nil, apperr.NotFound("pack not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	plan, ok := pack.FindPlan(req.PlanLabel)
	if !ok {
		return nil, apperr.Validation(fmt.Sprintf("plan %q not found", req.PlanLabel))
	}

	if req.RejectIfEntitled {
		entitled, err := s.access.CanAccessPack(ctx, req.UserID, pack.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if entitled {
			return nil, apperr.Conflict("pack already purchased")
		}
	}

	quote, err := s.pricer.Quote(ctx, plan.PriceCents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// шлюз не принимает заказы на нулевую сумму
	if quote.FinalCents <= 0 {
		log.Warn("zero amount checkout rejected", slog.Int64("base_cents", quote.BaseCents))
		s.count("zero_amount")
		return nil, apperr.Validation("order amount after discount must be greater than zero")
	}

	var purchase *models.PackPurchase
	err = s.repo.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FailPendingPurchases(ctx, req.UserID, pack.ID); err != nil {
			return err
		}
		purchase, err = s.repo.CreatePurchase(ctx, models.PackPurchase{
			UserID:      req.UserID,
			PackID:      pack.ID,
			PlanLabel:   plan.Label,
			AmountCents: quote.FinalCents,
			Currency:    s.currency,
			Status:      models.PurchasePending,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	customID, err := json.Marshal(models.OrderCorrelation{UserID: req.UserID, PlanLabel: plan.Label})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order, err := s.gateway.CreateOrder(ctx, paymentprovider.OrderParams{
		AmountCents: quote.FinalCents,
		Currency:    s.currency,
		CustomID:    string(customID),
		InvoiceID:   pack.ID,
		Description: pack.Name + " / " + plan.Label,
		ReturnURL:   s.redirectURL("success", purchase.ID),
		CancelURL:   s.redirectURL("cancel", purchase.ID),
	})
	if err != nil {
		log.Error("failed to create gateway order", slog.String("purchase_id", purchase.ID), sl.Err(err))
		if markErr := s.repo.MarkPurchaseFailed(ctx, purchase.ID); markErr != nil {
			log.Error("failed to mark purchase failed", sl.Err(markErr))
		}
		s.count("gateway_error")
		if errors.Is(err, paymentprovider.ErrNotConfigured) {
			return nil, apperr.Wrap(apperr.KindValidation, "payments are not configured", err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.SetPurchaseOrderID(ctx, purchase.ID, order.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.count("created")
	log.Info("checkout created",
		slog.String("purchase_id", purchase.ID),
		slog.String("order_id", order.ID),
		slog.Int64("amount_cents", quote.FinalCents))

	return &models.Checkout{
		PurchaseID:  purchase.ID,
		OrderID:     order.ID,
		ApproveURL:  order.ApproveURL,
		AmountCents: quote.FinalCents,
		Currency:    s.currency,
	}, nil
}

// Capture подтверждает одобренный покупателем заказ. Подписка продлевается
// позже, по событию вебхука.
func (s *PurchaseService) Capture(ctx context.Context, orderID string) (*paymentprovider.Capture, error) {
	const op = "services.purchase.Capture"
	if orderID == "" {
		return nil, apperr.Validation("order id is required")
	}
	capture, err := s.gateway.CaptureOrder(ctx, orderID)
	if err != nil {
		var apiErr *paymentprovider.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return nil, apperr.Wrap(apperr.KindValidation, "order cannot be captured", err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("order captured", slog.String("order_id", orderID), slog.String("status", capture.Status))
	return capture, nil
}

func (s *PurchaseService) redirectURL(outcome, purchaseID string) string {
	return s.frontendURL + "/paypal/" + outcome + "?purchaseId=" + url.QueryEscape(purchaseID)
}

func (s *PurchaseService) count(result string) {
	if s.metrics != nil {
		s.metrics.CheckoutsTotal.WithLabelValues(result).Inc()
	}
}
