package highlight

import (
	"context"
	"fmt"
	"time"

	"highlight-bot/internal/storage"
)

// DisabledEvent is the timer kind that turns highlighting back on.
const DisabledEvent = "disabled"

type DisabledStore interface {
	SetDisabled(ctx context.Context, userID string, disabled bool) error
}

type TimerScheduler interface {
	Create(ctx context.Context, userID, event string, due time.Time, payload map[string]any) (storage.Timer, error)
	Cancel(ctx context.Context, userID, event string) (bool, error)
}

type Snooze struct {
	store  DisabledStore
	timers TimerScheduler
}

func NewSnooze(store DisabledStore, timers TimerScheduler) *Snooze {
	return &Snooze{store: store, timers: timers}
}

func (s *Snooze) Enable(ctx context.Context, userID string) error {
	if _, err := s.timers.Cancel(ctx, userID, DisabledEvent); err != nil {
		return fmt.Errorf("cancel timer: %w", err)
	}
	return s.store.SetDisabled(ctx, userID, false)
}

// Disable turns highlighting off. A non-zero until schedules it back on.
func (s *Snooze) Disable(ctx context.Context, userID string, until time.Time) error {
	if _, err := s.timers.Cancel(ctx, userID, DisabledEvent); err != nil {
		return fmt.Errorf("cancel timer: %w", err)
	}
	if err := s.store.SetDisabled(ctx, userID, true); err != nil {
		return err
	}
	if until.IsZero() {
		return nil
	}
	if _, err := s.timers.Create(ctx, userID, DisabledEvent, until, nil); err != nil {
		return fmt.Errorf("create timer: %w", err)
	}
	return nil
}

// Expired handles a fired DisabledEvent timer.
func (s *Snooze) Expired(ctx context.Context, timer storage.Timer) error {
	return s.store.SetDisabled(ctx, timer.UserID, false)
}
