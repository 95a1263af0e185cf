package audit

import (
	"net/http"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes HTTP endpoints for working with audit logs.
type Handler struct {
	Service *Service
}

// List returns a paginated list of audit logs.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	limit, offset := common.ParseLimitOffset(r, 50, 200)
	rows, err := h.Service.List(r.Context(), limit, offset)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}
