package highlight

import (
	"context"
	"sync"
	"time"
)

const activityRetention = 5 * time.Minute

type activityKey struct {
	channelID string
	userID    string
}

// Activity remembers when users last showed signs of reading a channel
// (sending, typing or reacting) and wakes anyone waiting on that signal.
type Activity struct {
	mu      sync.Mutex
	clock   Clock
	last    map[activityKey]time.Time
	waiters map[activityKey]map[chan struct{}]struct{}
}

func NewActivity(clock Clock) *Activity {
	if clock == nil {
		clock = realClock{}
	}
	return &Activity{
		clock:   clock,
		last:    make(map[activityKey]time.Time),
		waiters: make(map[activityKey]map[chan struct{}]struct{}),
	}
}

func (a *Activity) Record(channelID, userID string, at time.Time) {
	key := activityKey{channelID: channelID, userID: userID}

	a.mu.Lock()
	defer a.mu.Unlock()

	if prev, ok := a.last[key]; !ok || at.After(prev) {
		a.last[key] = at
	}
	for waiter := range a.waiters[key] {
		select {
		case waiter <- struct{}{}:
		default:
		}
	}
	if len(a.last) > 1024 {
		a.pruneLocked(at)
	}
}

// Wait blocks until the user is active in the channel at or after since, the
// timeout elapses, or ctx ends. It reports whether activity was seen.
func (a *Activity) Wait(ctx context.Context, channelID, userID string, since time.Time, timeout time.Duration) bool {
	key := activityKey{channelID: channelID, userID: userID}
	waiter := make(chan struct{}, 1)

	a.mu.Lock()
	if last, ok := a.last[key]; ok && !last.Before(since) {
		a.mu.Unlock()
		return true
	}
	set := a.waiters[key]
	if set == nil {
		set = make(map[chan struct{}]struct{})
		a.waiters[key] = set
	}
	set[waiter] = struct{}{}
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.waiters[key], waiter)
		if len(a.waiters[key]) == 0 {
			delete(a.waiters, key)
		}
		a.mu.Unlock()
	}()

	expired := make(chan struct{})
	var once sync.Once
	timer := a.clock.AfterFunc(timeout, func() {
		once.Do(func() { close(expired) })
	})
	defer timer.Stop()

	select {
	case <-waiter:
		return true
	case <-expired:
		return false
	case <-ctx.Done():
		return false
	}
}

func (a *Activity) pruneLocked(now time.Time) {
	cutoff := now.Add(-activityRetention)
	for key, at := range a.last {
		if at.Before(cutoff) {
			delete(a.last, key)
		}
	}
}
