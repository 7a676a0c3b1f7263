package llm

import (
	"sync"
	"time"
)

// UsageLedger tracks per-day request, token, and error counts. Counters reset
// when the wall-clock date rolls over. The ledger is advisory: it feeds
// logging and alerting and never blocks a call.
type UsageLedger struct {
	mu            sync.Mutex
	requestsToday int64
	tokensToday   int64
	errorsToday   int64
	windowStart   time.Time

	now func() time.Time // overridable for tests
}

// UsageSnapshot is a point-in-time copy of the ledger counters.
type UsageSnapshot struct {
	RequestsToday int64
	TokensToday   int64
	ErrorsToday   int64
	WindowStart   time.Time
}

// NewUsageLedger creates a ledger whose window starts today.
func NewUsageLedger() *UsageLedger {
	l := &UsageLedger{now: time.Now}
	l.windowStart = startOfDay(l.now())
	return l
}

// RecordSuccess counts one completed request and its token consumption.
func (l *UsageLedger) RecordSuccess(tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDay()
	l.requestsToday++
	l.tokensToday += int64(tokens)
}

// RecordFailure counts one failed attempt.
func (l *UsageLedger) RecordFailure() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDay()
	l.requestsToday++
	l.errorsToday++
}

// Snapshot returns a copy of the current counters.
func (l *UsageLedger) Snapshot() UsageSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDay()
	return UsageSnapshot{
		RequestsToday: l.requestsToday,
		TokensToday:   l.tokensToday,
		ErrorsToday:   l.errorsToday,
		WindowStart:   l.windowStart,
	}
}

// resetIfNewDay zeroes the counters when the date has rolled over.
// Must be called with l.mu held.
func (l *UsageLedger) resetIfNewDay() {
	today := startOfDay(l.now())
	if today.After(l.windowStart) {
		l.requestsToday = 0
		l.tokensToday = 0
		l.errorsToday = 0
		l.windowStart = today
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
