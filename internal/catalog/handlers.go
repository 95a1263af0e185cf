package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// ErrUnknownCode is returned when a scanned code matches nothing.
var ErrUnknownCode = fmt.Errorf("unknown item code: %w", common.ErrNotFound)

const maxImportBytes = 8 << 20

// Handler exposes catalog lookup and administration endpoints.
type Handler struct {
	Service  *Service
	Importer *Importer
}

// Lookup handles GET /api/v1/catalog/lookup/{code}.
func (h Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	idx, err := h.Service.Current()
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "CATALOG_NOT_LOADED", err.Error(), nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	match, ok := idx.Lookup(code)
	if !ok {
		common.WriteError(w, fmt.Errorf("%q: %w", code, ErrUnknownCode))
		return
	}
	out := map[string]any{"match": match}
	if match.Kind == KindProduct {
		out["promos"] = idx.PromosFor(match.Product.StockNo)
	}
	common.Data(w, http.StatusOK, out)
}

// Import handles POST /api/v1/admin/catalog/import with a YAML or JSON body,
// then reloads the index.
func (h Handler) Import(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil || h.Importer == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog importer not configured", nil)
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	defer body.Close()

	report, err := h.Importer.ImportFile(r.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "import file too large", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	if err := h.Service.Invalidate(r.Context()); err != nil && h.Service.Logger != nil {
		h.Service.Logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
	snap, err := h.Service.Reload(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{
		"import": report,
		"load":   snap.Report,
	})
}

// Reload handles POST /api/v1/admin/catalog/reload.
func (h Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	snap, err := h.Service.Reload(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{
		"loaded_at": snap.LoadedAt,
		"load":      snap.Report,
	})
}
