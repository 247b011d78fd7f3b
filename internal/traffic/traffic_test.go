package traffic

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestRequestCount_Empty(t *testing.T) {
	tr := New(clockwork.NewFakeClock())
	if n := tr.RequestCount(time.Minute); n != 0 {
		t.Errorf("RequestCount() = %d, want 0", n)
	}
}

func TestRecordDenied_AndCounts(t *testing.T) {
	tr := New(clockwork.NewFakeClock())
	tr.RecordDenied()
	tr.RecordDenied()
	tr.RecordSuccess()
	if n := tr.DenialCount(time.Minute); n != 2 {
		t.Errorf("DenialCount() = %d, want 2", n)
	}
	if n := tr.RequestCount(time.Minute); n != 3 {
		t.Errorf("RequestCount() = %d, want 3", n)
	}
}

func TestErrorRate_DeniedExcluded(t *testing.T) {
	tr := New(clockwork.NewFakeClock())
	tr.RecordSuccess()
	tr.RecordSuccess()
	tr.RecordError()
	tr.RecordDenied()
	errs, total := tr.ErrorRate(time.Minute)
	if errs != 1 || total != 3 {
		t.Errorf("ErrorRate() = (%d, %d), want (1, 3)", errs, total)
	}
}

func TestWindowExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tr := New(clock)
	tr.RecordSuccess()
	clock.Advance(30 * time.Second)
	tr.RecordError()

	if n := tr.RequestCount(time.Minute); n != 2 {
		t.Errorf("RequestCount(1m) = %d, want 2", n)
	}
	clock.Advance(45 * time.Second)
	if n := tr.RequestCount(time.Minute); n != 1 {
		t.Errorf("RequestCount(1m) after 75s = %d, want 1", n)
	}
}

func TestPrune_DropsOldEntries(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tr := New(clock)
	tr.RecordSuccess()
	clock.Advance(6 * time.Minute)
	tr.RecordSuccess()

	tr.mu.Lock()
	n := len(tr.successTimes)
	tr.mu.Unlock()
	if n != 1 {
		t.Errorf("retained %d timestamps, want 1", n)
	}
}

func TestReset(t *testing.T) {
	tr := New(clockwork.NewFakeClock())
	tr.RecordSuccess()
	tr.RecordDenied()
	tr.Reset()
	if n := tr.RequestCount(time.Hour); n != 0 {
		t.Errorf("RequestCount() after Reset = %d, want 0", n)
	}
}

func TestAssess(t *testing.T) {
	th := Thresholds{
		OverloadWindow:       time.Minute,
		OverloadDenials:      3,
		DegradedWindow:       time.Minute,
		DegradedErrorPercent: 50,
		DegradedMinRequests:  4,
		IdleWindow:           5 * time.Minute,
	}
	tests := []struct {
		name    string
		success int
		errors  int
		denied  int
		want    Status
	}{
		{"idle", 0, 0, 0, StatusIdle},
		{"healthy", 5, 1, 0, StatusHealthy},
		{"degraded", 2, 2, 0, StatusDegraded},
		{"too few requests to judge", 1, 2, 0, StatusHealthy},
		{"overloaded", 0, 0, 3, StatusOverloaded},
		{"overload beats degraded", 0, 5, 3, StatusOverloaded},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := New(clockwork.NewFakeClock())
			for i := 0; i < tc.success; i++ {
				tr.RecordSuccess()
			}
			for i := 0; i < tc.errors; i++ {
				tr.RecordError()
			}
			for i := 0; i < tc.denied; i++ {
				tr.RecordDenied()
			}
			if got := tr.Assess(th); got != tc.want {
				t.Errorf("Assess() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAssess_DisabledChecks(t *testing.T) {
	tr := New(clockwork.NewFakeClock())
	tr.RecordError()
	if got := tr.Assess(Thresholds{}); got != StatusHealthy {
		t.Errorf("Assess(zero) = %q, want healthy", got)
	}
}
