package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fintaar/crossrail/internal/rules"
)

// ListRules handles GET /rules with an optional type filter.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	typ := rules.RuleType(r.URL.Query().Get("type"))
	var out []rules.Rule
	if typ != "" {
		out = h.rules.List(typ)
	} else {
		out = append(h.rules.List(rules.TypeProviderSelection), h.rules.List(rules.TypeMarginAdjustment)...)
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"rules": out, "count": len(out)})
}

// CreateRule handles POST /rules.
func (h *Handlers) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule rules.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	if err := h.rules.Add(rule); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rule)
}

// DeleteRule handles DELETE /rules/{id}.
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.rules.Delete(mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ToggleRule handles POST /rules/{id}/toggle.
func (h *Handlers) ToggleRule(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.rules.Toggle(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"enabled": enabled})
}
