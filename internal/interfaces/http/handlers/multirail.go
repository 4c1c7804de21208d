package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fintaar/crossrail/internal/multirail"
)

// MultiRailRoute handles POST /multi-rail/route.
func (h *Handlers) MultiRailRoute(w http.ResponseWriter, r *http.Request) {
	var req multirail.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	resp, err := h.multiRail.Route(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.MultiRailRoutes.WithLabelValues(resp.BestRoute.Template).Inc()
	h.writeJSON(w, http.StatusOK, resp)
}

// CBDCs handles GET /multi-rail/cbdc.
func (h *Handlers) CBDCs(w http.ResponseWriter, r *http.Request) {
	snap := h.registry.Snapshot()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cbdcs":       snap.CBDCs,
		"mbridge_set": snap.MBridgeSet(),
	})
}

// Stablecoins handles GET /multi-rail/stablecoins.
func (h *Handlers) Stablecoins(w http.ResponseWriter, r *http.Request) {
	snap := h.registry.Snapshot()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"stablecoins": snap.Stablecoins,
		"ramps":       snap.Ramps,
	})
}
