package repository

import (
	"context"
	"database/sql"

	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

const purchaseColumns = `id, user_id, pack_id, plan_label, amount_cents, currency, status,
	COALESCE(paypal_order_id, ''), COALESCE(paypal_capture_id, ''), created_at, updated_at`

func scanPurchase(row rowScanner) (*models.PackPurchase, error) {
	p := &models.PackPurchase{}
	if err := row.Scan(&p.ID, &p.UserID, &p.PackID, &p.PlanLabel, &p.AmountCents, &p.Currency, &p.Status,
		&p.PayPalOrderID, &p.PayPalCaptureID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePurchase сохраняет новую покупку в статусе pending.
func (s *Storage) CreatePurchase(ctx context.Context, purchase models.PackPurchase) (*models.PackPurchase, error) {
	const op = "storage.CreatePurchase"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPurchase(s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO pack_purchases (user_id, pack_id, plan_label, amount_cents, currency, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+purchaseColumns,
		purchase.UserID, purchase.PackID, purchase.PlanLabel, purchase.AmountCents, purchase.Currency, models.PurchasePending))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// GetPurchase возвращает покупку по ID.
func (s *Storage) GetPurchase(ctx context.Context, id string) (*models.PackPurchase, error) {
	const op = "storage.GetPurchase"
	p, err := scanPurchase(s.q(ctx).QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM pack_purchases WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// SetPurchaseOrderID сохраняет идентификатор заказа платёжного шлюза.
func (s *Storage) SetPurchaseOrderID(ctx context.Context, id, orderID string) error {
	const op = "storage.SetPurchaseOrderID"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE pack_purchases SET paypal_order_id = $2, updated_at = now() WHERE id = $1`, id, orderID)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}

// MarkPurchaseFailed переводит покупку из pending в failed.
func (s *Storage) MarkPurchaseFailed(ctx context.Context, id string) error {
	const op = "storage.MarkPurchaseFailed"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE pack_purchases SET status = 'failed', updated_at = now() WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}

// FailPendingPurchases переводит все незавершённые покупки пользователя по паку в failed
// и возвращает их количество.
func (s *Storage) FailPendingPurchases(ctx context.Context, userID, packID string) (int64, error) {
	const op = "storage.FailPendingPurchases"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE pack_purchases SET status = 'failed', updated_at = now()
		 WHERE user_id = $1 AND pack_id = $2 AND status = 'pending'`, userID, packID)
	if err != nil {
		return 0, wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}

// FindPurchaseForCapture находит и блокирует покупку, к которой относится списание.
// С orderID ищется только покупка этого заказа, в том числе вытесненная новым
// оформлением (failed). Без orderID берётся самая свежая pending-покупка.
func (s *Storage) FindPurchaseForCapture(ctx context.Context, userID, packID, orderID string) (*models.PackPurchase, error) {
	const op = "storage.FindPurchaseForCapture"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var row *sql.Row
	if orderID != "" {
		row = s.q(ctx).QueryRowContext(ctx,
			`SELECT `+purchaseColumns+` FROM pack_purchases
			 WHERE user_id = $1 AND pack_id = $2 AND paypal_order_id = $3 AND status IN ('pending', 'failed')
			 FOR UPDATE`, userID, packID, orderID)
	} else {
		row = s.q(ctx).QueryRowContext(ctx,
			`SELECT `+purchaseColumns+` FROM pack_purchases
			 WHERE user_id = $1 AND pack_id = $2 AND status = 'pending'
			 ORDER BY created_at DESC
			 LIMIT 1
			 FOR UPDATE`, userID, packID)
	}
	p, err := scanPurchase(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// CompletePurchase переводит покупку из pending или failed в completed
// и сохраняет ID транзакции шлюза.
func (s *Storage) CompletePurchase(ctx context.Context, id, captureID string) error {
	const op = "storage.CompletePurchase"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE pack_purchases
		 SET status = 'completed', paypal_capture_id = $2, updated_at = now()
		 WHERE id = $1 AND status IN ('pending', 'failed')`, id, nullString(captureID))
	if err != nil {
		return wrap(op, err)
	}
	return affectedOrNotFound(op, res)
}

// HasCompletedPurchase сообщает, оплатил ли пользователь пак.
func (s *Storage) HasCompletedPurchase(ctx context.Context, userID, packID string) (bool, error) {
	const op = "storage.HasCompletedPurchase"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM pack_purchases WHERE user_id = $1 AND pack_id = $2 AND status = 'completed'
		 )`, userID, packID).Scan(&exists)
	if err != nil {
		return false, wrap(op, err)
	}
	return exists, nil
}
