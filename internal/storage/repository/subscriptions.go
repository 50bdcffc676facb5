package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

const subscriptionColumns = `s.id, s.user_id, s.pack_id, COALESCE(p.name, ''), s.plan, s.status,
	s.current_period_end, s.created_at, s.updated_at`

const subscriptionFrom = ` FROM subscriptions s LEFT JOIN packs p ON p.id = s.pack_id`

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	sub := &models.Subscription{}
	var packID sql.NullString
	if err := row.Scan(&sub.ID, &sub.UserID, &packID, &sub.PackName, &sub.Plan, &sub.Status,
		&sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	sub.PackID = fromNull(packID)
	return sub, nil
}

// GetSubscriptionForUpdate возвращает подписку пользователя на пак и блокирует строку
// до конца транзакции.
func (s *Storage) GetSubscriptionForUpdate(ctx context.Context, userID, packID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionForUpdate"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	sub, err := scanSubscription(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+subscriptionFrom+`
		 WHERE s.user_id = $1 AND s.pack_id = $2
		 FOR UPDATE OF s`, userID, packID))
	if err != nil {
		return nil, wrap(op, err)
	}
	return sub, nil
}

// UpsertSubscription создаёт подписку или перезаписывает существующую для той же пары (user, pack).
func (s *Storage) UpsertSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.UpsertSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var id string
	err := s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_id, pack_id, plan, status, current_period_end)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, pack_id) DO UPDATE
		 SET plan = EXCLUDED.plan,
		     status = EXCLUDED.status,
		     current_period_end = EXCLUDED.current_period_end,
		     updated_at = now()
		 RETURNING id`,
		sub.UserID, nullString(sub.PackID), sub.Plan, sub.Status, sub.CurrentPeriodEnd).Scan(&id)
	if err != nil {
		return nil, wrap(op, err)
	}

	result, err := scanSubscription(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+subscriptionFrom+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// ListSubscriptionsByUser возвращает подписки пользователя, ближайшие к окончанию первыми.
func (s *Storage) ListSubscriptionsByUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionsByUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+subscriptionColumns+subscriptionFrom+`
		 WHERE s.user_id = $1
		 ORDER BY s.current_period_end DESC`, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// ExpireLapsedSubscriptions переводит в expired активные подписки пользователя,
// период которых закончился к моменту now. Возвращает число изменённых записей.
func (s *Storage) ExpireLapsedSubscriptions(ctx context.Context, userID string, now time.Time) (int64, error) {
	const op = "storage.ExpireLapsedSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE subscriptions SET status = 'expired', updated_at = now()
		 WHERE user_id = $1 AND status = 'active' AND current_period_end < $2`, userID, now)
	if err != nil {
		return 0, wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}

// HasActiveSubscription сообщает, есть ли у пользователя действующая на момент now подписка на пак.
func (s *Storage) HasActiveSubscription(ctx context.Context, userID, packID string, now time.Time) (bool, error) {
	const op = "storage.HasActiveSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE user_id = $1 AND pack_id = $2 AND status = 'active' AND current_period_end > $3
		 )`, userID, packID, now).Scan(&exists)
	if err != nil {
		return false, wrap(op, err)
	}
	return exists, nil
}

// FindSubscriptionsEndingBetween возвращает активные подписки, заканчивающиеся в [from, to).
func (s *Storage) FindSubscriptionsEndingBetween(ctx context.Context, from, to time.Time) ([]*models.ExpiringSubscriptionMessage, error) {
	const op = "storage.FindSubscriptionsEndingBetween"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT u.email, u.name, COALESCE(p.name, ''), s.plan, s.current_period_end
		 FROM subscriptions s
		 JOIN users u ON u.id = s.user_id
		 LEFT JOIN packs p ON p.id = s.pack_id
		 WHERE s.status = 'active' AND s.current_period_end >= $1 AND s.current_period_end < $2`, from, to)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.ExpiringSubscriptionMessage, 0)
	for rows.Next() {
		m := &models.ExpiringSubscriptionMessage{}
		if err := rows.Scan(&m.Email, &m.Name, &m.PackName, &m.Plan, &m.PeriodEnd); err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, m)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}
