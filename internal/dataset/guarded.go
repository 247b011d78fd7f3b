package dataset

import (
	"context"

	"github.com/kjstillabower/airmap-service/internal/circuitbreaker"
)

// GuardedSource runs every Load of a remote source through a circuit breaker.
// While the breaker is open Load fails fast with circuitbreaker.ErrOpen.
type GuardedSource struct {
	source  Source
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedSource wraps source with breaker.
func NewGuardedSource(source Source, breaker *circuitbreaker.CircuitBreaker) *GuardedSource {
	return &GuardedSource{source: source, breaker: breaker}
}

func (g *GuardedSource) Name() string {
	return g.source.Name()
}

func (g *GuardedSource) Load(ctx context.Context) (*Table, error) {
	var t *Table
	err := g.breaker.Call(ctx, func() error {
		var err error
		t, err = g.source.Load(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// BreakerState reports the breaker state for health checks.
func (g *GuardedSource) BreakerState() circuitbreaker.State {
	return g.breaker.State()
}
