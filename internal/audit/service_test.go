package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/db/memdb"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

func TestServiceRecordRequest(t *testing.T) {
	store := memdb.New()
	svc := &Service{Runner: store, Enabled: true}

	req := httptest.NewRequest(http.MethodPost, "https://kasir.test/api/v1/vault/checkpoint", nil)
	req.Header.Set(OperatorHeader, "cashier-7")
	req.RemoteAddr = "10.0.0.2:54321"
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/api/v1/vault/checkpoint"))

	require.NoError(t, svc.RecordRequest(req, "", "vault", "12", http.StatusOK, map[string]any{"revenue": 4500}))

	rows := store.AuditLogs()
	require.Len(t, rows, 1)
	row := rows[0]
	require.Equal(t, "cashier-7", row.Actor)
	require.Equal(t, "POST /api/v1/vault/checkpoint", row.Action)
	require.Equal(t, "vault", row.Resource)
	require.True(t, row.ResourceID.Valid)
	require.Equal(t, "12", row.ResourceID.String)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(row.Metadata, &meta))
	require.Equal(t, "10.0.0.2", meta["ip"])
	require.EqualValues(t, 4500, meta["revenue"])
	require.EqualValues(t, http.StatusOK, meta["status"])
}

func TestServiceRecordDisabled(t *testing.T) {
	store := memdb.New()
	svc := &Service{Runner: store, Enabled: false}
	require.NoError(t, svc.Record(context.Background(), Entry{Action: "checkpoint"}))
	require.Empty(t, store.AuditLogs())
}

func TestServiceRecordDefaultsActor(t *testing.T) {
	store := memdb.New()
	svc := &Service{Runner: store, Enabled: true}
	require.NoError(t, svc.Record(context.Background(), Entry{Action: "reference.assign", Resource: "sales"}))
	rows := store.AuditLogs()
	require.Len(t, rows, 1)
	require.Equal(t, "anonymous", rows[0].Actor)
	require.Nil(t, rows[0].Metadata)
}

func TestMiddlewareSkipsFailuresWhenSuccessOnly(t *testing.T) {
	store := memdb.New()
	rec := HTTPRecorder{Service: &Service{Runner: store, Enabled: true}}
	failing := rec.Middleware(HTTPConfig{Action: "catalog.import", Resource: "catalog", SuccessOnly: true})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
	ok := rec.Middleware(HTTPConfig{Action: "catalog.reload", Resource: "catalog", SuccessOnly: true})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/admin/catalog/import", nil))
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/admin/catalog/reload", nil))

	rows := store.AuditLogs()
	require.Len(t, rows, 1)
	require.Equal(t, "catalog.reload", rows[0].Action)
}

func TestMiddlewareRecordsResourceID(t *testing.T) {
	store := memdb.New()
	rec := HTTPRecorder{Service: &Service{Runner: store, Enabled: true}}
	r := chi.NewRouter()
	r.With(rec.Middleware(HTTPConfig{Action: "sale.view", Resource: "sales", ResourceIDParam: "id"})).
		Get("/api/v1/sales/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/41", nil)
	req.Header.Set(OperatorHeader, "cashier-2")
	r.ServeHTTP(httptest.NewRecorder(), req)

	rows := store.AuditLogs()
	require.Len(t, rows, 1)
	require.Equal(t, "41", rows[0].ResourceID.String)
	require.Equal(t, "cashier-2", rows[0].Actor)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(rows[0].Metadata, &meta))
	require.EqualValues(t, http.StatusNotFound, meta["status"])
	require.Contains(t, meta, "duration_ms")
}

func TestMiddlewareDisabledPassesThrough(t *testing.T) {
	store := memdb.New()
	rec := HTTPRecorder{Service: &Service{Runner: store}}
	h := rec.Middleware(HTTPConfig{Action: "catalog.reload"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Empty(t, store.AuditLogs())
}
