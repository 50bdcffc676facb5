// Package services продление подписок и их ленивое истечение.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/metrics"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/period"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

type Repository interface {
	GetSubscriptionForUpdate(ctx context.Context, userID, packID string) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	ListSubscriptionsByUser(ctx context.Context, userID string) ([]*models.Subscription, error)
	ExpireLapsedSubscriptions(ctx context.Context, userID string, now time.Time) (int64, error)
}

type SubscriptionService struct {
	repo    Repository
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewSubscriptionService(repo Repository, m *metrics.Metrics, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{repo: repo, metrics: m, log: log, now: time.Now}
}

// Extend продлевает подписку пользователя на пак на срок тарифа.
// Незакончившийся период продлевается от своей даты окончания.
// Вызывается внутри транзакции подтверждения оплаты: строка подписки
// блокируется до конца транзакции.
func (s *SubscriptionService) Extend(ctx context.Context, userID, packID string, plan models.Plan) (*models.Subscription, error) {
	const op = "services.subscription.Extend"
	now := s.now()

	var currentEnd time.Time
	current, err := s.repo.GetSubscriptionForUpdate(ctx, userID, packID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	case current.Status == models.SubscriptionActive:
		currentEnd = current.CurrentPeriodEnd
	}

	sub, err := s.repo.UpsertSubscription(ctx, models.Subscription{
		UserID:           userID,
		PackID:           packID,
		Plan:             plan.Label,
		Status:           models.SubscriptionActive,
		CurrentPeriodEnd: period.Extend(currentEnd, now, plan.DurationDays),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.metrics != nil {
		s.metrics.SubscriptionsExt.Inc()
	}
	s.log.Info("subscription extended",
		slog.String("user_id", userID),
		slog.String("pack_id", packID),
		slog.String("plan", plan.Label),
		slog.Time("period_end", sub.CurrentPeriodEnd))
	return sub, nil
}

// ExpireLapsed переводит в expired активные подписки пользователя с истёкшим периодом.
func (s *SubscriptionService) ExpireLapsed(ctx context.Context, userID string) error {
	const op = "services.subscription.ExpireLapsed"
	n, err := s.repo.ExpireLapsedSubscriptions(ctx, userID, s.now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		if s.metrics != nil {
			s.metrics.ExpiredOnAccess.Add(float64(n))
		}
		s.log.Info("subscriptions expired", slog.String("user_id", userID), slog.Int64("count", n))
	}
	return nil
}

// ListForUser возвращает подписки пользователя после проверки истечения.
func (s *SubscriptionService) ListForUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	if err := s.ExpireLapsed(ctx, userID); err != nil {
		return nil, err
	}
	subs, err := s.repo.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("services.subscription.ListForUser: %w", err)
	}
	return subs, nil
}
