package traffic

import "time"

// Status is the traffic-derived part of the health report.
type Status string

const (
	StatusHealthy    Status = "healthy"
	StatusIdle       Status = "idle"
	StatusOverloaded Status = "overloaded"
	StatusDegraded   Status = "degraded"
)

// Thresholds configure Assess. Zero windows disable the matching check.
type Thresholds struct {
	OverloadWindow       time.Duration
	OverloadDenials      int
	DegradedWindow       time.Duration
	DegradedErrorPercent int
	DegradedMinRequests  int
	IdleWindow           time.Duration
}

// Assess classifies recent traffic. Overload wins over degradation, which wins
// over idleness.
func (t *Tracker) Assess(th Thresholds) Status {
	if th.OverloadWindow > 0 && th.OverloadDenials > 0 &&
		t.DenialCount(th.OverloadWindow) >= th.OverloadDenials {
		return StatusOverloaded
	}
	if th.DegradedWindow > 0 && th.DegradedErrorPercent > 0 {
		errs, total := t.ErrorRate(th.DegradedWindow)
		if total > 0 && total >= th.DegradedMinRequests && errs*100 >= th.DegradedErrorPercent*total {
			return StatusDegraded
		}
	}
	if th.IdleWindow > 0 && t.RequestCount(th.IdleWindow) == 0 {
		return StatusIdle
	}
	return StatusHealthy
}
