package input

import (
	"sync"
	"time"

	werrors "github.com/mj1618/wingman/internal/errors"
)

// Throttle enforces a minimum interval between sends.
type Throttle struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewThrottle creates a Throttle. A zero interval never throttles.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval, now: time.Now}
}

// WithClock replaces the clock. Used by tests.
func (t *Throttle) WithClock(now func() time.Time) *Throttle {
	t.now = now
	return t
}

// Check returns THROTTLED while the last send is inside the interval.
func (t *Throttle) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.interval <= 0 || t.last.IsZero() {
		return nil
	}
	elapsed := t.now().Sub(t.last)
	if elapsed >= t.interval {
		return nil
	}
	remain := int((t.interval - elapsed) / time.Second)
	return werrors.NewThrottled(max(remain, 1))
}

// Mark records a successful send.
func (t *Throttle) Mark() {
	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()
}

// Last returns the time of the last send, zero if none.
func (t *Throttle) Last() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Restore sets the last send time, e.g. from a previous process.
func (t *Throttle) Restore(last time.Time) {
	t.mu.Lock()
	t.last = last
	t.mu.Unlock()
}
