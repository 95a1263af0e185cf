package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/resilience"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newClock() *clock { return &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)} }

func TestBreakerOpensAndRecovers(t *testing.T) {
	clk := newClock()
	b := resilience.NewBreaker(resilience.BreakerConfig{Target: "sales-export", MinRequests: 2, OpenFor: time.Minute}).
		WithClock(clk.Now)
	ctx := context.Background()
	boom := errors.New("downstream unavailable")

	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return boom }), boom)
	require.Equal(t, resilience.Closed, b.State())
	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return boom }), boom)
	require.Equal(t, resilience.Open, b.State())

	called := false
	err := b.Do(ctx, func(context.Context) error { called = true; return nil })
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.ErrorIs(t, err, common.ErrPersistence)
	require.ErrorContains(t, err, "sales-export")
	require.False(t, called)

	clk.now = clk.now.Add(time.Minute)
	require.NoError(t, b.Do(ctx, func(context.Context) error { return nil }))
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerHalfOpenAdmitsOneProbe(t *testing.T) {
	clk := newClock()
	b := resilience.NewBreaker(resilience.BreakerConfig{OpenFor: time.Second}).WithClock(clk.Now)
	ctx := context.Background()

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, resilience.Open, b.State())

	clk.now = clk.now.Add(time.Second)
	require.True(t, b.Allow(ctx))
	require.Equal(t, resilience.HalfOpen, b.State())
	require.False(t, b.Allow(ctx), "second caller must wait for the probe")

	b.Report(ctx, false)
	require.Equal(t, resilience.Open, b.State())
	require.False(t, b.Allow(ctx))
}

func TestBreakerRatioBelowThresholdStaysClosed(t *testing.T) {
	b := resilience.NewBreaker(resilience.BreakerConfig{MinRequests: 4, FailureRatio: 0.75})
	ctx := context.Background()
	for _, ok := range []bool{false, true, false, true, false, true} {
		require.True(t, b.Allow(ctx))
		b.Report(ctx, ok)
	}
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerWindowForgetsOldFailures(t *testing.T) {
	clk := newClock()
	b := resilience.NewBreaker(resilience.BreakerConfig{MinRequests: 2, Window: time.Minute}).WithClock(clk.Now)
	ctx := context.Background()

	b.Report(ctx, false)
	clk.now = clk.now.Add(2 * time.Minute)
	b.Report(ctx, true)
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	b := resilience.NewBreaker(resilience.BreakerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := resilience.NewMetrics("kasir", reg)
	require.NoError(t, err)
	again, err := resilience.NewMetrics("kasir", reg)
	require.NoError(t, err)
	require.Same(t, m.State, again.State)

	clk := newClock()
	b := resilience.NewBreaker(resilience.BreakerConfig{Target: "sales-export", OpenFor: time.Second, Metrics: m}).
		WithClock(clk.Now)
	ctx := context.Background()
	state := func() float64 { return testutil.ToFloat64(m.State.WithLabelValues("sales-export")) }

	require.Zero(t, state())
	b.Report(ctx, false)
	require.Equal(t, 1.0, state())
	clk.now = clk.now.Add(time.Second)
	require.True(t, b.Allow(ctx))
	require.Equal(t, 2.0, state())
	b.Report(ctx, true)
	require.Zero(t, state())

	require.Equal(t, 1.0, testutil.ToFloat64(m.Opened.WithLabelValues("sales-export")))
	for _, edge := range [][2]string{{"closed", "open"}, {"open", "half_open"}, {"half_open", "closed"}} {
		require.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("sales-export", edge[0], edge[1])), edge)
	}
}
