package timers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"highlight-bot/internal/storage"

	"go.uber.org/zap"
)

type Store interface {
	ReplaceTimer(ctx context.Context, timer storage.Timer) (int64, error)
	CancelTimer(ctx context.Context, userID, event string) (bool, error)
	DueTimers(ctx context.Context, before time.Time) ([]storage.Timer, error)
	DeleteTimer(ctx context.Context, id int64) (bool, error)
}

type Handler func(ctx context.Context, timer storage.Timer) error

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

func (t realTimer) Stop() bool { return t.t.Stop() }

// Scheduler polls the timers table and fires rows at their due time. Rows
// due within the next poll interval are armed in memory; a row is dispatched
// only by the caller whose delete removed it, so it fires at most once.
type Scheduler struct {
	mu       sync.Mutex
	store    Store
	clock    Clock
	interval time.Duration
	logger   *zap.Logger
	handlers map[string]Handler
	armed    map[int64]Timer
	base     context.Context
}

func New(store Store, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		store:    store,
		clock:    realClock{},
		interval: interval,
		logger:   logger,
		handlers: make(map[string]Handler),
		armed:    make(map[int64]Timer),
	}
}

func (s *Scheduler) WithClock(clock Clock) {
	s.clock = clock
}

func (s *Scheduler) Handle(event string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = handler
}

// Create stores a timer, replacing any pending timer of the same user and
// event. Timers due before the next poll are armed right away when Run is active.
func (s *Scheduler) Create(ctx context.Context, userID, event string, due time.Time, payload map[string]any) (storage.Timer, error) {
	timer := storage.Timer{UserID: userID, Event: event, DueAt: due, Payload: payload}
	id, err := s.store.ReplaceTimer(ctx, timer)
	if err != nil {
		return storage.Timer{}, err
	}
	timer.ID = id

	s.mu.Lock()
	base := s.base
	s.mu.Unlock()
	if base != nil && due.Sub(s.clock.Now()) < s.interval {
		s.arm(base, timer)
	}
	return timer, nil
}

func (s *Scheduler) Cancel(ctx context.Context, userID, event string) (bool, error) {
	return s.store.CancelTimer(ctx, userID, event)
}

// Run polls immediately and then on every interval until ctx ends.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.disarmAll()

	for {
		if _, err := s.Poll(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("timer poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll arms every timer due before the next poll and returns how many were
// newly armed.
func (s *Scheduler) Poll(ctx context.Context) (int, error) {
	due, err := s.store.DueTimers(ctx, s.clock.Now().Add(s.interval))
	if err != nil {
		return 0, fmt.Errorf("load due timers: %w", err)
	}
	armed := 0
	for _, timer := range due {
		if s.arm(ctx, timer) {
			armed++
		}
	}
	return armed, nil
}

func (s *Scheduler) arm(ctx context.Context, timer storage.Timer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.armed[timer.ID]; ok {
		return false
	}
	delay := timer.DueAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	s.armed[timer.ID] = s.clock.AfterFunc(delay, func() {
		s.fire(ctx, timer)
	})
	return true
}

func (s *Scheduler) fire(ctx context.Context, timer storage.Timer) {
	defer func() {
		s.mu.Lock()
		delete(s.armed, timer.ID)
		s.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("timer handler panic", zap.Int64("timer_id", timer.ID), zap.String("kind", timer.Event), zap.Any("panic", r))
		}
	}()

	fields := []zap.Field{zap.Int64("timer_id", timer.ID), zap.String("kind", timer.Event), zap.String("user_id", timer.UserID)}

	deleted, err := s.store.DeleteTimer(ctx, timer.ID)
	if err != nil {
		s.logger.Warn("timer delete failed", append(fields, zap.Error(err))...)
		return
	}
	if !deleted {
		return
	}

	s.mu.Lock()
	handler := s.handlers[timer.Event]
	s.mu.Unlock()
	if handler == nil {
		s.logger.Warn("no handler for timer", fields...)
		return
	}
	if err := handler(ctx, timer); err != nil {
		s.logger.Error("timer handler failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Info("timer fired", fields...)
}

func (s *Scheduler) disarmAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = nil
	for id, timer := range s.armed {
		timer.Stop()
		delete(s.armed, id)
	}
}
