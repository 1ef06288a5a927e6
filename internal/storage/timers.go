package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type Timer struct {
	ID      int64          `db:"id"`
	UserID  string         `db:"user_id"`
	Event   string         `db:"event"`
	DueAt   time.Time      `db:"time"`
	Payload map[string]any `db:"extra"`
}

// ReplaceTimer cancels any pending timer of the same user and event, then
// stores the new one.
func (s *Store) ReplaceTimer(ctx context.Context, timer Timer) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `
		DELETE FROM timers
		WHERE user_id = $1 AND event = $2
	`, timer.UserID, timer.Event); err != nil {
		return 0, err
	}

	payload := timer.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	var id int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO timers (user_id, event, time, extra)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, timer.UserID, timer.Event, timer.DueAt.UTC(), payload).Scan(&id); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// CancelTimer deletes the pending timer of a user and event. It reports
// whether a timer existed.
func (s *Store) CancelTimer(ctx context.Context, userID, event string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM timers
		WHERE user_id = $1 AND event = $2
	`, userID, event)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DueTimers returns timers due at or before the given instant, oldest first.
func (s *Store) DueTimers(ctx context.Context, before time.Time) ([]Timer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, event, time, extra
		FROM timers
		WHERE time <= $1
		ORDER BY time
	`, before.UTC())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Timer])
}

// DeleteTimer removes a timer by id and reports whether this call removed it.
func (s *Store) DeleteTimer(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM timers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
