package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fintaar/crossrail/internal/deals"
	"github.com/fintaar/crossrail/internal/domain"
)

// actorRequest is the body shared by the simple deal transitions.
type actorRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

// utilizeRequest is the body of a utilisation.
type utilizeRequest struct {
	Amount      float64 `json:"amount"`
	By          string  `json:"by"`
	CustomerRef string  `json:"customer_ref,omitempty"`
}

// ListDeals handles GET /deals with optional status and pair filters.
func (h *Handlers) ListDeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.deals.List(r.Context(), domain.DealStatus(q.Get("status")), q.Get("pair"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"deals": list, "count": len(list)})
}

// CreateDeal handles POST /deals.
func (h *Handlers) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var req deals.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	d, err := h.deals.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.DealTransitions.WithLabelValues("create").Inc()
	h.writeJSON(w, http.StatusCreated, d)
}

// GetDeal handles GET /deals/{id}.
func (h *Handlers) GetDeal(w http.ResponseWriter, r *http.Request) {
	d, err := h.deals.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

// UpdateDeal handles PUT /deals/{id} for DRAFT deals.
func (h *Handlers) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		deals.UpdateRequest
		Actor string `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	d, err := h.deals.Update(r.Context(), mux.Vars(r)["id"], body.UpdateRequest, body.Actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.DealTransitions.WithLabelValues("update").Inc()
	h.writeJSON(w, http.StatusOK, d)
}

// SubmitDeal handles POST /deals/{id}/submit.
func (h *Handlers) SubmitDeal(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "submit", func(id string, req actorRequest) (domain.Deal, error) {
		return h.deals.Submit(r.Context(), id, req.Actor)
	})
}

// ApproveDeal handles POST /deals/{id}/approve.
func (h *Handlers) ApproveDeal(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve", func(id string, req actorRequest) (domain.Deal, error) {
		return h.deals.Approve(r.Context(), id, req.Actor)
	})
}

// RejectDeal handles POST /deals/{id}/reject.
func (h *Handlers) RejectDeal(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject", func(id string, req actorRequest) (domain.Deal, error) {
		return h.deals.Reject(r.Context(), id, req.Actor, req.Reason)
	})
}

// CancelDeal handles POST /deals/{id}/cancel.
func (h *Handlers) CancelDeal(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel", func(id string, req actorRequest) (domain.Deal, error) {
		return h.deals.Cancel(r.Context(), id, req.Actor, req.Reason)
	})
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, op string, apply func(string, actorRequest) (domain.Deal, error)) {
	var req actorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	d, err := apply(mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.DealTransitions.WithLabelValues(op).Inc()
	h.writeJSON(w, http.StatusOK, d)
}

// UtilizeDeal handles POST /deals/{id}/utilize.
func (h *Handlers) UtilizeDeal(w http.ResponseWriter, r *http.Request) {
	var req utilizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	d, err := h.deals.Utilize(r.Context(), mux.Vars(r)["id"], req.Amount, req.By, req.CustomerRef)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.DealTransitions.WithLabelValues("utilize").Inc()
	h.writeJSON(w, http.StatusOK, d)
}

// DealAudit handles GET /deals/{id}/audit.
func (h *Handlers) DealAudit(w http.ResponseWriter, r *http.Request) {
	d, err := h.deals.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"deal_id": d.DealID, "audit": d.Audit})
}

// DealUtilizations handles GET /deals/{id}/utilizations.
func (h *Handlers) DealUtilizations(w http.ResponseWriter, r *http.Request) {
	d, err := h.deals.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"deal_id":          d.DealID,
		"remaining_amount": d.RemainingAmount,
		"utilizations":     d.Utilizations,
	})
}

// BestRate handles GET /deals/best-rate. The treasury comparison rate
// comes from the live cache unless the caller pins one.
func (h *Handlers) BestRate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		h.writeError(w, r, domain.Validationf("amount", "must be a number"))
		return
	}
	side, err := domain.ParseSide(q.Get("side"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pair := q.Get("pair")

	treasury := 0.0
	if raw := q.Get("treasury_rate"); raw != "" {
		if treasury, err = strconv.ParseFloat(raw, 64); err != nil {
			h.writeError(w, r, domain.Validationf("treasury_rate", "must be a number"))
			return
		}
	} else {
		rate, _, err := h.source.Get(r.Context(), pair)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		treasury = rate.Base(side)
	}

	res, err := h.deals.BestRate(r.Context(), deals.BestRateQuery{
		Pair: pair, Side: side, Amount: amount, TreasuryRate: treasury,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}
