package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fintaar/crossrail/internal/routing"
)

// Recommend handles POST /routing/recommend.
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var req routing.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	rec, err := h.router.Recommend(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.Recommendations.Inc()
	if n := len(rec.AppliedRules); n > 0 {
		h.metrics.RuleMatches.Add(float64(n))
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// TreasuryRates handles GET /routing/treasury-rates.
func (h *Handlers) TreasuryRates(w http.ResponseWriter, r *http.Request) {
	snap, err := h.source.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"rates": snap})
}

// Providers handles GET /routing/providers.
func (h *Handlers) Providers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"providers": h.registry.Snapshot().ProviderList(),
	})
}
