package reference

import (
	"net/http"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// AssignRequest is the body of POST /api/v1/references.
type AssignRequest struct {
	Reference string   `json:"reference" validate:"required"`
	StockNos  []string `json:"stock_nos" validate:"omitempty,dive,required"`
}

// Handler exposes reference assignment over HTTP.
type Handler struct {
	Assigner *Assigner
}

// Assign handles POST /api/v1/references.
func (h Handler) Assign(w http.ResponseWriter, r *http.Request) {
	if h.Assigner == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "reference assigner not configured", nil)
		return
	}
	var req AssignRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.Assigner.Assign(r.Context(), req.Reference, req.StockNos)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, res)
}
