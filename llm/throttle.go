package llm

import (
	"context"
	"sync"
	"time"
)

// DefaultThrottleInterval is the minimum spacing between outbound call
// admissions across the whole process.
const DefaultThrottleInterval = 1 * time.Second

// Throttle is a single-slot admission gate: one permit is released per fixed
// interval, process-wide. It serializes call initiation, not completion, and
// delays callers rather than dropping them.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time

	now func() time.Time // overridable for tests
}

// NewThrottle creates a Throttle releasing one permit per interval.
// A non-positive interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		now:      time.Now,
	}
}

// Wait blocks until a permit is available or the context is done.
// Permits are handed out in arrival order of the internal reservation, so
// concurrent callers are spaced at least one interval apart.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.interval <= 0 {
		return ctx.Err()
	}

	t.mu.Lock()
	now := t.now()
	var delay time.Duration
	if t.next.After(now) {
		delay = t.next.Sub(now)
		t.next = t.next.Add(t.interval)
	} else {
		t.next = now.Add(t.interval)
	}
	t.mu.Unlock()

	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
