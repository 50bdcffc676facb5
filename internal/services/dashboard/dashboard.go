// Package services сводная статистика для панели администратора.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

const (
	topPacksLimit = 5
	trendDays     = 30
)

type Repository interface {
	TotalUsers(ctx context.Context) (int64, error)
	SubscriptionsByStatus(ctx context.Context, status string) (int64, error)
	IncomeSince(ctx context.Context, from time.Time) (int64, error)
	TopPacks(ctx context.Context, limit int) ([]models.PackIncome, error)
	DailyIncome(ctx context.Context, from time.Time) ([]models.DailyPoint, error)
	DailySignups(ctx context.Context, from time.Time) ([]models.DailyPoint, error)
}

type DashboardService struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewDashboardService(repo Repository, log *slog.Logger) *DashboardService {
	return &DashboardService{repo: repo, log: log, now: time.Now}
}

// Stats собирает метрики: пользователи, подписки по статусам, выручка
// за всё время и за текущий месяц, топ паков и дневные тренды за 30 дней.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	const op = "services.dashboard.Stats"
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	trendFrom := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(trendDays - 1))

	var (
		stats models.DashboardStats
		err   error
	)
	if stats.TotalUsers, err = s.repo.TotalUsers(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stats.ActiveSubscriptions, err = s.repo.SubscriptionsByStatus(ctx, models.SubscriptionActive); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stats.ExpiredSubscriptions, err = s.repo.SubscriptionsByStatus(ctx, models.SubscriptionExpired); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stats.TotalIncomeCents, err = s.repo.IncomeSince(ctx, time.Time{}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stats.MonthlyIncomeCents, err = s.repo.IncomeSince(ctx, monthStart); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stats.TopPacks, err = s.repo.TopPacks(ctx, topPacksLimit); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stats.DailyIncome, err = s.repo.DailyIncome(ctx, trendFrom); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stats.DailySignups, err = s.repo.DailySignups(ctx, trendFrom); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &stats, nil
}
