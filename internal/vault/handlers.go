package vault

import (
	"net/http"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes the vault over HTTP.
type Handler struct {
	Vault *Vault
}

// Current handles GET /api/v1/vault.
func (h Handler) Current(w http.ResponseWriter, r *http.Request) {
	if h.Vault == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "vault not configured", nil)
		return
	}
	snap, err := h.Vault.Current(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, snap)
}

// Checkpoint handles POST /api/v1/vault/checkpoint.
func (h Handler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if h.Vault == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "vault not configured", nil)
		return
	}
	snap, err := h.Vault.Checkpoint(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, snap)
}
