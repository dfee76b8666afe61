package app

import (
	"sync"
	"time"
)

// throttle enforces a minimum interval between events on a single
// connection. Events inside the window are dropped, never queued, and
// the client gets no feedback.
type throttle struct {
	mu   sync.Mutex
	min  time.Duration
	last time.Time
}

func (t *throttle) allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.min > 0 && !t.last.IsZero() && now.Sub(t.last) < t.min {
		return false
	}
	t.last = now
	return true
}
