package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func fail() error    { return errUpstream }
func succeed() error { return nil }

type transition struct{ from, to State }

func newBreaker(clock clockwork.Clock, seen *[]transition) *CircuitBreaker {
	return New(Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          10 * time.Second,
		Component:        "http",
		Clock:            clock,
		OnStateChange: func(component string, from, to State) {
			*seen = append(*seen, transition{from, to})
		},
	})
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var seen []transition
	cb := newBreaker(clock, &seen)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Call(ctx, fail), errUpstream)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, []transition{{StateClosed, StateOpen}}, seen)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	var seen []transition
	cb := newBreaker(clockwork.NewFakeClock(), &seen)
	ctx := context.Background()

	_ = cb.Call(ctx, fail)
	_ = cb.Call(ctx, fail)
	require.NoError(t, cb.Call(ctx, succeed))
	_ = cb.Call(ctx, fail)
	_ = cb.Call(ctx, fail)

	assert.Equal(t, StateClosed, cb.State())
	assert.Empty(t, seen)
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var seen []transition
	cb := newBreaker(clock, &seen)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Call(ctx, fail)
	}
	clock.Advance(9 * time.Second)
	assert.ErrorIs(t, cb.Call(ctx, succeed), ErrOpen)

	clock.Advance(2 * time.Second)
	require.NoError(t, cb.Call(ctx, succeed))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Call(ctx, succeed))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []transition{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}, seen)
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var seen []transition
	cb := newBreaker(clock, &seen)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Call(ctx, fail)
	}
	clock.Advance(11 * time.Second)
	assert.ErrorIs(t, cb.Call(ctx, fail), errUpstream)
	assert.Equal(t, StateOpen, cb.State())

	clock.Advance(5 * time.Second)
	assert.ErrorIs(t, cb.Call(ctx, succeed), ErrOpen)
	assert.Len(t, seen, 3)
}

func TestBreaker_CancellationNotCounted(t *testing.T) {
	var seen []transition
	cb := newBreaker(clockwork.NewFakeClock(), &seen)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		err := cb.Call(ctx, func() error { return ctx.Err() })
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestNew_Defaults(t *testing.T) {
	cb := New(Config{Component: "postgres"})
	assert.Equal(t, 5, cb.failureThreshold)
	assert.Equal(t, 2, cb.successThreshold)
	assert.Equal(t, 30*time.Second, cb.timeout)
	assert.Equal(t, "postgres", cb.Component())
	assert.Equal(t, "half_open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
