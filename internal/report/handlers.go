package report

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// ErrInvalidPeriodID is returned for a malformed period id.
var ErrInvalidPeriodID = fmt.Errorf("invalid period id: %w", common.ErrValidation)

// Handler exposes period report endpoints.
type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/reports/periods.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORT_NOT_CONFIGURED", "report service not configured", nil)
		return
	}
	page := common.ParsePagination(r, 20, 100)
	rows, err := h.Svc.Closed(r.Context(), page.PerPage, page.Offset())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": rows,
		"pagination": common.Pagination{
			Page:     page.Page,
			PerPage:  page.PerPage,
			Returned: len(rows),
		},
	})
}

// Get handles GET /api/v1/reports/periods/{id}.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORT_NOT_CONFIGURED", "report service not configured", nil)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		common.WriteError(w, ErrInvalidPeriodID)
		return
	}
	rep, err := h.Svc.Period(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rep)
}
