// Package handlers implements the JSON endpoint handlers for the FX
// engine. Every handler maps domain errors onto the shared taxonomy and
// never leaks internal error chains to the caller.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fintaar/crossrail/internal/deals"
	"github.com/fintaar/crossrail/internal/domain"
	"github.com/fintaar/crossrail/internal/multirail"
	"github.com/fintaar/crossrail/internal/pricing"
	"github.com/fintaar/crossrail/internal/rates"
	"github.com/fintaar/crossrail/internal/refdata"
	"github.com/fintaar/crossrail/internal/routing"
	"github.com/fintaar/crossrail/internal/rules"
)

// Handlers manages all HTTP endpoint handlers.
type Handlers struct {
	registry  *refdata.Registry
	source    *rates.CachedSource
	router    *routing.Engine
	multiRail *multirail.Router
	pricer    *pricing.Engine
	deals     *deals.Service
	rules     *rules.Engine
	metrics   *Metrics
}

// NewHandlers wires the handler set.
func NewHandlers(registry *refdata.Registry, source *rates.CachedSource, router *routing.Engine, multiRail *multirail.Router, pricer *pricing.Engine, dealService *deals.Service, ruleEngine *rules.Engine, metrics *Metrics) *Handlers {
	return &Handlers{
		registry:  registry,
		source:    source,
		router:    router,
		multiRail: multiRail,
		pricer:    pricer,
		deals:     dealService,
		rules:     ruleEngine,
		metrics:   metrics,
	}
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Code      string      `json:"code"`
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
	Details   interface{} `json:"details,omitempty"`
}

// writeJSON writes a JSON response with proper error handling.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

// writeError maps a domain error onto the response taxonomy.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, details := classify(err)
	if status >= 500 {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	requestID, _ := r.Context().Value(requestIDKey).(string)
	h.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   err.Error(),
		Code:      code,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Details:   details,
	})
}

// writeBadRequest reports a malformed request body.
func (h *Handlers) writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.writeError(w, r, domain.Validationf("body", "malformed request: %v", err))
}

type ctxKey string

// requestIDKey is shared with the server middleware.
const requestIDKey ctxKey = "request_id"

// RequestIDKey exposes the context key to the server package.
func RequestIDKey() interface{} { return requestIDKey }

// classify maps the error taxonomy onto status codes.
func classify(err error) (int, string, interface{}) {
	var (
		validation   *domain.ValidationError
		notFound     *domain.NotFoundError
		rate         *domain.RateUnavailableError
		noProvider   *domain.NoEligibleProviderError
		dealState    *domain.DealStateConflictError
		dealBalance  *domain.InsufficientDealBalanceError
		refConflict  *domain.ReferenceDataConflictError
		template     *domain.TemplateInapplicableError
		ruleEval     *domain.RuleEvaluationError
		persistence  *domain.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "validation_error", map[string]string{"field": validation.Field}
	case errors.As(err, &notFound):
		return http.StatusNotFound, "not_found", nil
	case errors.As(err, &rate):
		return http.StatusUnprocessableEntity, "rate_unavailable", map[string]string{"pair": rate.Pair, "retry": "rates refresh continuously; retry shortly"}
	case errors.As(err, &noProvider):
		return http.StatusUnprocessableEntity, "no_eligible_provider", noProvider.Exclusions
	case errors.As(err, &dealState):
		return http.StatusConflict, "deal_state_conflict", map[string]string{"current_status": string(dealState.Current)}
	case errors.As(err, &dealBalance):
		return http.StatusConflict, "insufficient_deal_balance", map[string]float64{"remaining": dealBalance.Remaining}
	case errors.As(err, &refConflict):
		return http.StatusConflict, "reference_data_conflict", map[string]string{"table": refConflict.Table, "key": refConflict.Key}
	case errors.As(err, &template):
		return http.StatusUnprocessableEntity, "template_inapplicable", nil
	case errors.As(err, &ruleEval):
		return http.StatusInternalServerError, "rule_evaluation_error", nil
	case errors.As(err, &persistence):
		return http.StatusInternalServerError, "persistence_error", nil
	default:
		return http.StatusInternalServerError, "internal_error", nil
	}
}

// NotFound handles 404 responses.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	requestID, _ := r.Context().Value(requestIDKey).(string)
	h.writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:     http.StatusText(http.StatusNotFound),
		Message:   "the requested endpoint does not exist",
		Code:      "endpoint_not_found",
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	})
}

// Health reports liveness and the size of the loaded registries.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.registry.Snapshot()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"timestamp":   time.Now().UTC(),
		"providers":   len(snap.Providers),
		"cbdcs":       len(snap.CBDCs),
		"stablecoins": len(snap.Stablecoins),
	})
}
