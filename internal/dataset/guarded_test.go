package dataset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/airmap-service/internal/circuitbreaker"
)

func TestGuardedSource_FailsFastWhenOpen(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &stubSource{err: errors.New("connection refused")}
	g := NewGuardedSource(src, circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 2,
		Timeout:          time.Minute,
		Component:        "stub",
		Clock:            clock,
	}))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := g.Load(ctx)
		require.Error(t, err)
	}
	assert.Equal(t, circuitbreaker.StateOpen, g.BreakerState())

	_, err := g.Load(ctx)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, 2, src.loads)

	src.err = nil
	src.table = mustTable(t, testCSV)
	clock.Advance(time.Minute)
	tbl, err := g.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, tbl.Records, 4)
	assert.Equal(t, "stub", g.Name())
}

func TestGuardedSource_OpenBreakerIsDataUnavailable(t *testing.T) {
	src := &stubSource{err: errors.New("timeout")}
	g := NewGuardedSource(src, circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 1,
		Clock:            clockwork.NewFakeClock(),
	}))
	b := newTestBuilder(t, g)

	_, err := b.Build(context.Background(), "2025-01-01", "pm25")
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = b.Build(context.Background(), "2025-01-01", "pm25")
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, 1, src.loads)
}
