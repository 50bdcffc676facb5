package repository

import (
	"context"
)

// MarkEventProcessed регистрирует событие платёжного шлюза.
// Возвращает false, если событие с таким ID уже было обработано.
func (s *Storage) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	const op = "storage.MarkEventProcessed"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO webhook_events (event_id, event_type) VALUES ($1, $2)
		 ON CONFLICT (event_id) DO NOTHING`, eventID, eventType)
	if err != nil {
		return false, wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap(op, err)
	}
	return n == 1, nil
}
