package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fintaar/crossrail/internal/pricing"
)

// Quote handles POST /pricing/quote.
func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	var req pricing.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	quote, err := h.pricer.Quote(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.QuotesIssued.Inc()
	h.writeJSON(w, http.StatusOK, quote)
}

// Segments handles GET /pricing/segments.
func (h *Handlers) Segments(w http.ResponseWriter, r *http.Request) {
	snap := h.registry.Snapshot()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"segments":     snap.Segments,
		"amount_tiers": snap.AmountTiers,
		"categories":   snap.Categories,
	})
}

// Tiers handles GET /pricing/tiers.
func (h *Handlers) Tiers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tiers": h.registry.Snapshot().Tiers,
	})
}
