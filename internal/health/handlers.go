package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-kasir/internal/common"
)

const defaultProbeTimeout = 500 * time.Millisecond

var draining atomic.Bool

// SetReady toggles readiness. The api calls SetReady(false) when shutdown
// starts so the terminal stops sending new checkouts.
func SetReady(ready bool) { draining.Store(!ready) }

// Probe checks one dependency within Timeout.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   func(ctx context.Context) error
}

// Check is the outcome of one probe.
type Check struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Report is the readiness body.
type Report struct {
	Status string           `json:"status"`
	Checks map[string]Check `json:"checks,omitempty"`
}

type Handler struct {
	Probes []Probe
}

func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, Report{Status: "ok"})
}

// Ready runs every probe concurrently and answers 503 when any fails, when
// none are configured, or while draining.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if draining.Load() {
		common.JSON(w, http.StatusServiceUnavailable, Report{Status: "draining"})
		return
	}
	if len(h.Probes) == 0 {
		common.JSON(w, http.StatusServiceUnavailable, Report{Status: "unavailable"})
		return
	}

	checks := make([]Check, len(h.Probes))
	var g errgroup.Group
	for i, p := range h.Probes {
		g.Go(func() error {
			checks[i] = p.run(r.Context())
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: "ok", Checks: make(map[string]Check, len(checks))}
	for i, c := range checks {
		if c.Status != "ok" {
			report.Status = "unavailable"
		}
		report.Checks[h.Probes[i].Name] = c
	}
	code := http.StatusOK
	if report.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, report)
}

func (p Probe) run(ctx context.Context) Check {
	if p.Check == nil {
		return Check{Status: "ok"}
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := p.Check(ctx)
	c := Check{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		c.Status, c.Error = "fail", err.Error()
	}
	return c
}
