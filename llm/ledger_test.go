package llm

import (
	"testing"
	"time"
)

func TestLedgerCounts(t *testing.T) {
	ledger := NewUsageLedger()
	ledger.RecordSuccess(100)
	ledger.RecordSuccess(250)
	ledger.RecordFailure()

	snap := ledger.Snapshot()
	if snap.RequestsToday != 3 {
		t.Errorf("Expected 3 requests, got %d", snap.RequestsToday)
	}
	if snap.TokensToday != 350 {
		t.Errorf("Expected 350 tokens, got %d", snap.TokensToday)
	}
	if snap.ErrorsToday != 1 {
		t.Errorf("Expected 1 error, got %d", snap.ErrorsToday)
	}
}

func TestLedgerDayRollover(t *testing.T) {
	current := time.Date(2026, 8, 28, 23, 50, 0, 0, time.UTC)
	ledger := NewUsageLedger()
	ledger.now = func() time.Time { return current }
	ledger.windowStart = startOfDay(current)

	ledger.RecordSuccess(500)
	ledger.RecordFailure()

	// Advance past midnight; the next observation resets the counters.
	current = time.Date(2026, 8, 29, 0, 5, 0, 0, time.UTC)
	snap := ledger.Snapshot()
	if snap.RequestsToday != 0 || snap.TokensToday != 0 || snap.ErrorsToday != 0 {
		t.Errorf("Expected counters reset after rollover, got %+v", snap)
	}
	if !snap.WindowStart.Equal(startOfDay(current)) {
		t.Errorf("Expected window start %v, got %v", startOfDay(current), snap.WindowStart)
	}

	ledger.RecordSuccess(42)
	snap = ledger.Snapshot()
	if snap.RequestsToday != 1 || snap.TokensToday != 42 {
		t.Errorf("Expected fresh counters after rollover, got %+v", snap)
	}
}

func TestLedgerSameDayNoReset(t *testing.T) {
	current := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	ledger := NewUsageLedger()
	ledger.now = func() time.Time { return current }
	ledger.windowStart = startOfDay(current)

	ledger.RecordSuccess(10)
	current = current.Add(8 * time.Hour)
	ledger.RecordSuccess(10)

	snap := ledger.Snapshot()
	if snap.RequestsToday != 2 || snap.TokensToday != 20 {
		t.Errorf("Expected same-day counters to accumulate, got %+v", snap)
	}
}
