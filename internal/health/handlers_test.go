package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/health"
)

func probe(name string, err error) health.Probe {
	return health.Probe{Name: name, Timeout: 50 * time.Millisecond, Check: func(context.Context) error { return err }}
}

func ready(t *testing.T, h health.Handler) (int, health.Report) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var report health.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	return rr.Code, report
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestReady(t *testing.T) {
	code, report := ready(t, health.Handler{Probes: []health.Probe{probe("db", nil), probe("redis", nil), probe("catalog", nil)}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", report.Status)
	require.Len(t, report.Checks, 3)
	for name, c := range report.Checks {
		require.Equal(t, "ok", c.Status, name)
	}
}

func TestReadyReportsFailingProbe(t *testing.T) {
	code, report := ready(t, health.Handler{Probes: []health.Probe{probe("db", errors.New("db down")), probe("redis", nil)}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "unavailable", report.Status)
	require.Equal(t, "fail", report.Checks["db"].Status)
	require.Equal(t, "db down", report.Checks["db"].Error)
	require.Equal(t, "ok", report.Checks["redis"].Status)
}

func TestReadyProbeTimeout(t *testing.T) {
	slow := health.Probe{Name: "redis", Timeout: 10 * time.Millisecond, Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	code, report := ready(t, health.Handler{Probes: []health.Probe{slow}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, context.DeadlineExceeded.Error(), report.Checks["redis"].Error)
}

func TestReadyWithoutProbes(t *testing.T) {
	code, report := ready(t, health.Handler{})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "unavailable", report.Status)
}

func TestReadyWhileDraining(t *testing.T) {
	h := health.Handler{Probes: []health.Probe{probe("db", nil)}}
	health.SetReady(false)
	t.Cleanup(func() { health.SetReady(true) })

	code, report := ready(t, h)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "draining", report.Status)
	require.Empty(t, report.Checks)

	health.SetReady(true)
	code, _ = ready(t, h)
	require.Equal(t, http.StatusOK, code)
}
