package checkout_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/checkout"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

func stringReader(s string) io.Reader { return strings.NewReader(s) }

func TestHandlers(t *testing.T) {
	h := newHarness(t)
	handler := checkout.Handler{Svc: h.svc}

	t.Run("price preview has no side effects", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"lines":[{"code":"A","qty":3},{"code":"COMBO1","qty":1}]}`
		handler.Price(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/price", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data pricing.PricedTransaction `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, int64(5200), resp.Data.Total)
		h.requireUntouched(t)
	})

	t.Run("discount is a decimal string or number", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"lines":[{"code":"B","qty":2,"discount_pct":"12.5"}]}`
		handler.Price(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/price", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"total":875`)
	})

	t.Run("commit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"lines":[{"code":"A","qty":3},{"code":"COMBO1","qty":1}],"cash":6000}`
		handler.Commit(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Data checkout.Output `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, int64(800), resp.Data.Transaction.Change)
		require.Len(t, resp.Data.Inventory.Lines, 2)
	})

	t.Run("insufficient tender", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"lines":[{"code":"A","qty":3},{"code":"COMBO1","qty":1}],"cash":5000}`
		handler.Commit(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"lines":[{"code":"NOPE","qty":1}],"cash":100}`
		handler.Commit(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Commit(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"lines":[]}`)))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
