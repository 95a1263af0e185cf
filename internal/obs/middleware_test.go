package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/obs"
)

func TestHTTPMetricsUseRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("kasir", []float64{10, 1}, registry)

	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/api/v1/products/{code}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusOK)
	})

	for _, code := range []string{"A1", "B2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+code, nil))
		require.Equal(t, http.StatusNotFound, rr.Code)
	}

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/products/{code}", "404"))
	require.Equal(t, float64(2), total)
	require.Equal(t, 1, testutil.CollectAndCount(metrics.ReqDur))
	require.Zero(t, testutil.ToFloat64(metrics.InFlight))
}

func TestHTTPMetricsReuseRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("kasir", nil, registry)
	second := obs.NewHTTPMetrics("kasir", nil, registry)
	require.Same(t, first.ReqTotal, second.ReqTotal)
}

func TestHTTPMetricsUnknownRoute(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("kasir", nil, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "unknown", "204")))
}

func TestRoutePatternMiddleware(t *testing.T) {
	var seen string
	r := chi.NewRouter()
	r.With(obs.RoutePatternMiddleware).Get("/api/v1/sales/{id}", func(w http.ResponseWriter, req *http.Request) {
		seen = obs.RoutePatternFromContext(req.Context())
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sales/9", nil))
	require.Equal(t, "/api/v1/sales/{id}", seen)
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 12.5, 100}, obs.ParseBucketsCSV(" 5, x,12.5,-1,0,100 "))
	require.Empty(t, obs.ParseBucketsCSV(""))
}
