package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/db/memdb"
)

func TestHandlerList(t *testing.T) {
	store := memdb.New()
	svc := &Service{Runner: store, Enabled: true}
	for _, action := range []string{"vault.checkpoint", "reference.assign", "catalog.import"} {
		require.NoError(t, svc.Record(context.Background(), Entry{Actor: "ops", Action: action, Resource: "test"}))
	}

	h := Handler{Service: svc}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit?limit=2&offset=0", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var payload struct {
		Data []struct {
			Action string
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 2)
	require.Equal(t, "catalog.import", payload.Data[0].Action)
	require.Equal(t, "reference.assign", payload.Data[1].Action)
}
