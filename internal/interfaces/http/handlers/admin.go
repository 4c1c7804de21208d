package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fintaar/crossrail/internal/domain"
)

// ReloadReferenceData handles POST /admin/reload. Both the reference
// tables and the rule files are re-read; a malformed document keeps the
// previous generation in service.
func (h *Handlers) ReloadReferenceData(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Reload(); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.rules.Load(); err != nil {
		h.writeError(w, r, err)
		return
	}
	snap := h.registry.Snapshot()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "reloaded",
		"providers": len(snap.Providers),
	})
}

// CreateProvider handles POST /admin/providers.
func (h *Handlers) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var p domain.Provider
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	if err := h.registry.CreateProvider(p); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, p)
}

// DeleteProvider handles DELETE /admin/providers/{id}.
func (h *Handlers) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.DeleteProvider(mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
