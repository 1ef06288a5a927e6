package utils

import (
	"sync"
	"time"
)

type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	hits   []time.Time
}

func NewSlidingWindow(window time.Duration) *SlidingWindow {
	return &SlidingWindow{window: window}
}

func (w *SlidingWindow) Add(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	w.hits = append(w.hits, now)
	return len(w.hits)
}

func (w *SlidingWindow) Count(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	return len(w.hits)
}

// AddIfUnder records a hit only while the window holds fewer than limit hits.
// Otherwise it returns how long until the oldest hit expires.
func (w *SlidingWindow) AddIfUnder(now time.Time, limit int) (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	if len(w.hits) >= limit {
		return false, w.retryAfterLocked(now)
	}
	w.hits = append(w.hits, now)
	return true, 0
}

// RetryAfter returns how long until the oldest hit leaves the window.
func (w *SlidingWindow) RetryAfter(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	return w.retryAfterLocked(now)
}

func (w *SlidingWindow) retryAfterLocked(now time.Time) time.Duration {
	if len(w.hits) == 0 {
		return 0
	}
	return w.hits[0].Add(w.window).Sub(now)
}

func (w *SlidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.window)
	idx := 0
	for _, hit := range w.hits {
		if hit.After(cutoff) {
			break
		}
		idx++
	}
	w.hits = w.hits[idx:]
}

// Cooldown limits how many commands each user may run inside a window.
type Cooldown struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*SlidingWindow
}

func NewCooldown(limit int, window time.Duration) *Cooldown {
	return &Cooldown{limit: limit, window: window, windows: make(map[string]*SlidingWindow)}
}

// Allow records a use by key. When the key is over its limit the use is not
// recorded and the remaining wait is returned.
func (c *Cooldown) Allow(key string, now time.Time) (bool, time.Duration) {
	if c.limit <= 0 {
		return true, 0
	}

	c.mu.Lock()
	c.sweepLocked(now)
	window, ok := c.windows[key]
	if !ok {
		window = NewSlidingWindow(c.window)
		c.windows[key] = window
	}
	c.mu.Unlock()

	return window.AddIfUnder(now, c.limit)
}

// sweepLocked drops idle windows once the map grows large.
func (c *Cooldown) sweepLocked(now time.Time) {
	if len(c.windows) < 1024 {
		return
	}
	for key, window := range c.windows {
		if window.Count(now) == 0 {
			delete(c.windows, key)
		}
	}
}
