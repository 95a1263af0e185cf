package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5000"
	require.Equal(t, "10.0.0.9", common.ClientIP(req))

	req.Header.Set("X-Real-IP", "192.168.1.4")
	require.Equal(t, "192.168.1.4", common.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "garbage, 172.16.0.3, 10.0.0.1")
	require.Equal(t, "172.16.0.3", common.ClientIP(req))
}

func TestPagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500", nil)
	p := common.ParsePagination(req, 20, 100)
	require.Equal(t, 3, p.Page)
	require.Equal(t, 100, p.PerPage)
	require.Equal(t, 200, p.Offset())

	p = common.ParsePagination(httptest.NewRequest(http.MethodGet, "/?page=-1&limit=x", nil), 20, 100)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.PerPage)
	require.Zero(t, p.Offset())

	limit, offset := common.ParseLimitOffset(httptest.NewRequest(http.MethodGet, "/?limit=999&offset=40", nil), 50, 200)
	require.Equal(t, 50, limit)
	require.Equal(t, 40, offset)
}
