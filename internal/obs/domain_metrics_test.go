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

func TestDomainMetricsRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("kasir", registry)
	obs.MustRegisterDomainMetrics("kasir", registry)

	obs.CheckoutTotal.WithLabelValues("committed").Inc()
	obs.CatalogSkippedRecordsTotal.WithLabelValues("product").Add(2)

	require.Equal(t, float64(1), testutil.ToFloat64(obs.CheckoutTotal.WithLabelValues("committed")))
	require.Equal(t, float64(2), testutil.ToFloat64(obs.CatalogSkippedRecordsTotal.WithLabelValues("product")))
}

func TestTracingMiddlewarePassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(obs.TracingMiddleware)
	r.Get("/api/v1/vault", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/vault", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
}
