package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// ErrOpenCircuit is returned when the breaker refuses a call. It is a
// persistence-class failure so callers retry later.
var ErrOpenCircuit = fmt.Errorf("resilience: circuit breaker open: %w", common.ErrPersistence)

// State is the breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a Breaker. Zero values take the defaults noted on
// each field.
type BreakerConfig struct {
	// Target labels metrics and logs. Default "default".
	Target string
	// MinRequests observed in the window before the ratio is evaluated. Default 1.
	MinRequests int
	// FailureRatio at or above which the breaker opens. Default 0.5.
	FailureRatio float64
	// OpenFor is how long the breaker rejects calls once open. Default 30s.
	OpenFor time.Duration
	// Window clears the closed-state counters periodically. Zero keeps them
	// until the next transition.
	Window time.Duration
	// Metrics receives state changes when set.
	Metrics *Metrics
}

// Breaker is a failure-ratio circuit breaker. While half-open it admits a
// single probe and the probe's outcome decides the next state.
type Breaker struct {
	cfg    BreakerConfig
	logger zerolog.Logger
	now    func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	total       int
	windowStart time.Time
	openedAt    time.Time
	probing     bool
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	cfg.Target = strings.TrimSpace(cfg.Target)
	if cfg.Target == "" {
		cfg.Target = "default"
	}
	if cfg.MinRequests <= 0 {
		cfg.MinRequests = 1
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.5
	}
	cfg.FailureRatio = min(cfg.FailureRatio, 1)
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	b := &Breaker{cfg: cfg, logger: zerolog.Nop(), now: time.Now}
	b.windowStart = b.now()
	cfg.Metrics.setState(cfg.Target, Closed)
	return b
}

// WithLogger sets the logger for transition events. A logger on the call
// context takes precedence.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	return b
}

// WithClock replaces the clock used for the open period and the window.
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now != nil {
		b.now = now
		b.windowStart = now()
	}
	return b
}

func (b *Breaker) Target() string { return b.cfg.Target }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do runs fn when the breaker admits the call and records the outcome.
// Cancellation of the caller's own context is not counted as a failure.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.Allow(ctx) {
		return fmt.Errorf("%s: %w", b.cfg.Target, ErrOpenCircuit)
	}
	err := fn(ctx)
	if err != nil && ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		b.release()
		return err
	}
	b.Report(ctx, err == nil)
	return err
}

// Allow reports whether a call may proceed. Once the open period has passed
// the first caller becomes the half-open probe; others are refused until it
// reports.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.OpenFor {
			return false
		}
		b.transitionLocked(ctx, HalfOpen)
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// Report records the outcome of an admitted call.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		b.probing = false
		if success {
			b.transitionLocked(ctx, Closed)
		} else {
			b.transitionLocked(ctx, Open)
		}
		return
	}

	if w := b.cfg.Window; w > 0 && b.now().Sub(b.windowStart) >= w {
		b.resetCountsLocked()
	}
	b.total++
	if !success {
		b.failures++
	}
	if b.total < b.cfg.MinRequests {
		return
	}
	if float64(b.failures)/float64(b.total) >= b.cfg.FailureRatio {
		b.transitionLocked(ctx, Open)
	}
}

// release frees a half-open probe slot without recording an outcome.
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == HalfOpen {
		b.probing = false
	}
}

func (b *Breaker) resetCountsLocked() {
	b.failures, b.total = 0, 0
	b.windowStart = b.now()
}

func (b *Breaker) transitionLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.resetCountsLocked()
	if next == Open {
		b.openedAt = b.now()
	}
	b.cfg.Metrics.transition(b.cfg.Target, prev, next)

	logger := b.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = *l
	}
	evt := logger.Info()
	if next == Open {
		evt = logger.Warn()
	}
	evt = evt.Str("target", b.cfg.Target).Str("from", prev.String()).Str("to", next.String())
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		evt = evt.Str("trace_id", sc.TraceID().String())
	}
	evt.Msg("breaker transition")
}
