package checkout

import (
	"net/http"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// PriceRequest is the body of POST /api/v1/cart/price.
type PriceRequest struct {
	Lines []pricing.CartLine `json:"lines" validate:"required,min=1,dive"`
}

// Handler exposes pricing previews and checkout commits.
type Handler struct {
	Svc *Service
}

// Price handles POST /api/v1/cart/price.
func (h Handler) Price(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var req PriceRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	priced, err := h.Svc.Price(r.Context(), req.Lines)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, priced)
}

// Commit handles POST /api/v1/checkout.
func (h Handler) Commit(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var in Input
	if err := common.DecodeJSON(w, r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Commit(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, out)
}
