// Package services обработка событий платёжного шлюза: подтверждение покупки
// и продление подписки.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/metrics"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/sl"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/paymentprovider"
	"github.com/magabrotheeeer/elearning-platform/internal/rabbitmq"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

// Результаты обработки события.
const (
	ResultProcessed = "processed"
	ResultDuplicate = "duplicate"
	ResultIgnored   = "ignored"
)

type Repository interface {
	MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error)
	FindPurchaseForCapture(ctx context.Context, userID, packID, orderID string) (*models.PackPurchase, error)
	CompletePurchase(ctx context.Context, id, captureID string) error
	GetPack(ctx context.Context, id string) (*models.Pack, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Extender interface {
	Extend(ctx context.Context, userID, packID string, plan models.Plan) (*models.Subscription, error)
}

type Verifier interface {
	VerifyWebhookSignature(ctx context.Context, headers http.Header, webhookID string, body []byte) (bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Result итог обработки события.
type Result struct {
	Status       string               `json:"status"`
	EventID      string               `json:"event_id"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

type WebhookService struct {
	repo      Repository
	subs      Extender
	verifier  Verifier
	publisher Publisher
	metrics   *metrics.Metrics
	webhookID string
	log       *slog.Logger
}

// NewWebhookService создаёт обработчик. Пустой webhookID отключает проверку подписи.
func NewWebhookService(repo Repository, subs Extender, verifier Verifier, publisher Publisher, m *metrics.Metrics,
	webhookID string, log *slog.Logger) *WebhookService {
	return &WebhookService{
		repo:      repo,
		subs:      subs,
		verifier:  verifier,
		publisher: publisher,
		metrics:   m,
		webhookID: webhookID,
		log:       log,
	}
}

// Reconcile обрабатывает событие PAYMENT.CAPTURE.COMPLETED: завершает ожидающую
// покупку и продлевает подписку в одной транзакции. Повторная доставка
// события с тем же ID ничего не меняет.
func (s *WebhookService) Reconcile(ctx context.Context, headers http.Header, body []byte) (*Result, error) {
	const op = "services.webhook.Reconcile"
	log := s.log.With(slog.String("op", op))

	if err := s.verify(ctx, headers, body); err != nil {
		return nil, err
	}

	var event paymentprovider.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "malformed webhook event", err)
	}
	log = log.With(slog.String("event_id", event.ID), slog.String("event_type", event.EventType))

	if event.EventType != paymentprovider.EventCaptureCompleted {
		log.Debug("webhook event ignored")
		s.count(event.EventType, ResultIgnored)
		return &Result{Status: ResultIgnored, EventID: event.ID}, nil
	}
	if event.ID == "" {
		return nil, apperr.Validation("event id is required")
	}

	capture, err := event.DecodeCapture()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "malformed capture resource", err)
	}
	var corr models.OrderCorrelation
	if capture.CustomID != "" {
		if err := json.Unmarshal([]byte(capture.CustomID), &corr); err != nil {
			log.Warn("undecodable custom_id", slog.String("custom_id", capture.CustomID))
		}
	}
	packID := strings.TrimSpace(capture.InvoiceID)
	if corr.UserID == "" || corr.PlanLabel == "" || packID == "" {
		log.Warn("webhook event without correlation data dropped")
		s.count(event.EventType, "invalid")
		return nil, apperr.Validation("missing user, plan or pack in event")
	}
	log = log.With(slog.String("user_id", corr.UserID), slog.String("pack_id", packID))

	var (
		duplicate bool
		purchase  *models.PackPurchase
		pack      *models.Pack
		sub       *models.Subscription
	)
	err = s.repo.RunInTx(ctx, func(ctx context.Context) error {
		fresh, err := s.repo.MarkEventProcessed(ctx, event.ID, event.EventType)
		if err != nil {
			return err
		}
		if !fresh {
			duplicate = true
			return nil
		}

		purchase, err = s.repo.FindPurchaseForCapture(ctx, corr.UserID, packID, capture.OrderID())
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("pending purchase not found")
		}
		if err != nil {
			return err
		}
		if purchase.Status == models.PurchaseFailed {
			log.Warn("capture for superseded purchase, completing it",
				slog.String("purchase_id", purchase.ID), slog.String("order_id", capture.OrderID()))
		}
		if err := s.repo.CompletePurchase(ctx, purchase.ID, capture.ID); err != nil {
			return err
		}

		pack, err = s.repo.GetPack(ctx, packID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("pack not found")
		}
		if err != nil {
			return err
		}
		plan, ok := pack.FindPlan(corr.PlanLabel)
		if !ok {
			return apperr.Validation(fmt.Sprintf("plan %q not found", corr.PlanLabel))
		}
		sub, err = s.subs.Extend(ctx, corr.UserID, packID, plan)
		return err
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			log.Warn("webhook event rejected", sl.Err(err))
			s.count(event.EventType, "rejected")
			return nil, err
		}
		s.count(event.EventType, "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if duplicate {
		log.Info("duplicate webhook event skipped")
		s.count(event.EventType, ResultDuplicate)
		return &Result{Status: ResultDuplicate, EventID: event.ID}, nil
	}

	s.count(event.EventType, ResultProcessed)
	log.Info("purchase completed",
		slog.String("purchase_id", purchase.ID),
		slog.Time("period_end", sub.CurrentPeriodEnd))
	s.sendReceipt(ctx, log, purchase, pack, sub)
	return &Result{Status: ResultProcessed, EventID: event.ID, Subscription: sub}, nil
}

func (s *WebhookService) verify(ctx context.Context, headers http.Header, body []byte) error {
	if s.webhookID == "" {
		s.log.Warn("webhook signature verification disabled")
		return nil
	}
	ok, err := s.verifier.VerifyWebhookSignature(ctx, headers, s.webhookID, body)
	if err != nil {
		return fmt.Errorf("services.webhook.verify: %w", err)
	}
	if !ok {
		return apperr.Validation("invalid webhook signature")
	}
	return nil
}

func (s *WebhookService) sendReceipt(ctx context.Context, log *slog.Logger, purchase *models.PackPurchase,
	pack *models.Pack, sub *models.Subscription) {
	user, err := s.repo.GetUser(ctx, purchase.UserID)
	if err != nil {
		log.Warn("receipt skipped: user lookup failed", sl.Err(err))
		return
	}
	msg := models.PurchaseReceiptMessage{
		Email:       user.Email,
		Name:        user.Name,
		PackName:    pack.Name,
		Plan:        sub.Plan,
		AmountCents: purchase.AmountCents,
		Currency:    purchase.Currency,
		PeriodEnd:   sub.CurrentPeriodEnd,
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingPurchaseCompleted, msg); err != nil {
		log.Error("failed to publish receipt", sl.Err(err))
	}
}

func (s *WebhookService) count(eventType, result string) {
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(eventType, result).Inc()
	}
}
