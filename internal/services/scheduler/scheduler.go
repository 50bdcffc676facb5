// Package services планировщик напоминаний об окончании подписок.
// Статус подписок планировщик не меняет.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/sl"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/rabbitmq"
)

// reminderLead за сколько до окончания периода отправляется напоминание.
const reminderLead = 24 * time.Hour

type SubscriptionRepository interface {
	FindSubscriptionsEndingBetween(ctx context.Context, from, to time.Time) ([]*models.ExpiringSubscriptionMessage, error)
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

type SchedulerService struct {
	repo      SubscriptionRepository
	publisher Publisher
	interval  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
// Каждый запуск охватывает подписки, заканчивающиеся в окне длиной interval
// через сутки от текущего момента, поэтому окна соседних запусков не пересекаются.
func NewSchedulerService(repo SubscriptionRepository, publisher Publisher, interval time.Duration, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		log:       log,
		now:       time.Now,
	}
}

// Run запускает напоминания сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) Run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce публикует напоминания для подписок, заканчивающихся в текущем окне.
// Возвращает число опубликованных сообщений.
func (s *SchedulerService) RunOnce(ctx context.Context) int {
	from := s.now().Add(reminderLead)
	to := from.Add(s.interval)
	log := s.log.With(slog.Time("from", from), slog.Time("to", to))

	log.Info("looking for subscriptions ending soon")
	entries, err := s.repo.FindSubscriptionsEndingBetween(ctx, from, to)
	if err != nil {
		log.Error("failed to find subscriptions", sl.Err(err))
		return 0
	}
	if len(entries) == 0 {
		log.Info("no expiring subscriptions found")
		return 0
	}

	published := 0
	for _, entry := range entries {
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingUpcoming, entry); err != nil {
			log.Error("failed to publish message", slog.String("email", entry.Email), sl.Err(err))
			continue
		}
		published++
	}
	log.Info("expiring subscription reminders published", slog.Int("count", published), slog.Int("found", len(entries)))
	return published
}
