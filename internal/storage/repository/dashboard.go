package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

// Dashboard выполняет агрегирующие запросы для панели администратора.
type Dashboard struct {
	db *sqlx.DB
}

// NewDashboard создаёт Dashboard поверх пула соединений Storage.
func NewDashboard(s *Storage) *Dashboard {
	return &Dashboard{db: sqlx.NewDb(s.DB, "pgx")}
}

func (d *Dashboard) count(ctx context.Context, op, query string, args ...any) (int64, error) {
	var n int64
	if err := d.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// TotalUsers возвращает число пользователей.
func (d *Dashboard) TotalUsers(ctx context.Context) (int64, error) {
	return d.count(ctx, "storage.Dashboard.TotalUsers", `SELECT COUNT(*) FROM users`)
}

// SubscriptionsByStatus возвращает число подписок в статусе status.
func (d *Dashboard) SubscriptionsByStatus(ctx context.Context, status string) (int64, error) {
	return d.count(ctx, "storage.Dashboard.SubscriptionsByStatus",
		`SELECT COUNT(*) FROM subscriptions WHERE status = $1`, status)
}

// IncomeSince возвращает сумму оплаченных покупок начиная с from (нулевое время — за всё время).
func (d *Dashboard) IncomeSince(ctx context.Context, from time.Time) (int64, error) {
	return d.count(ctx, "storage.Dashboard.IncomeSince",
		`SELECT COALESCE(SUM(amount_cents), 0) FROM pack_purchases
		 WHERE status = 'completed' AND created_at >= $1`, from)
}

// TopPacks возвращает паки с наибольшим числом оплаченных покупок.
func (d *Dashboard) TopPacks(ctx context.Context, limit int) ([]models.PackIncome, error) {
	const op = "storage.Dashboard.TopPacks"
	result := make([]models.PackIncome, 0)
	err := d.db.SelectContext(ctx, &result,
		`SELECT p.id AS pack_id, p.name AS name,
		        COUNT(pp.id) AS purchases,
		        COALESCE(SUM(pp.amount_cents), 0) AS income_cents
		 FROM pack_purchases pp
		 JOIN packs p ON p.id = pp.pack_id
		 WHERE pp.status = 'completed'
		 GROUP BY p.id, p.name
		 ORDER BY purchases DESC, income_cents DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DailyIncome возвращает выручку по дням начиная с from.
func (d *Dashboard) DailyIncome(ctx context.Context, from time.Time) ([]models.DailyPoint, error) {
	const op = "storage.Dashboard.DailyIncome"
	result := make([]models.DailyPoint, 0)
	err := d.db.SelectContext(ctx, &result,
		`SELECT date_trunc('day', created_at) AS day, COALESCE(SUM(amount_cents), 0) AS value
		 FROM pack_purchases
		 WHERE status = 'completed' AND created_at >= $1
		 GROUP BY day
		 ORDER BY day`, from)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DailySignups возвращает число регистраций по дням начиная с from.
func (d *Dashboard) DailySignups(ctx context.Context, from time.Time) ([]models.DailyPoint, error) {
	const op = "storage.Dashboard.DailySignups"
	result := make([]models.DailyPoint, 0)
	err := d.db.SelectContext(ctx, &result,
		`SELECT date_trunc('day', created_at) AS day, COUNT(*) AS value
		 FROM users
		 WHERE created_at >= $1
		 GROUP BY day
		 ORDER BY day`, from)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
