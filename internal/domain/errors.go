package domain

import "fmt"

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RateUnavailableError reports a pair missing from snapshot and cache.
type RateUnavailableError struct {
	Pair string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("no rate available for %s", e.Pair)
}

// NoEligibleProviderError carries the per-candidate exclusion reasons.
type NoEligibleProviderError struct {
	Pair       string
	Exclusions map[string]string
}

func (e *NoEligibleProviderError) Error() string {
	return fmt.Sprintf("no eligible provider for %s (%d candidates excluded)", e.Pair, len(e.Exclusions))
}

// DealStateConflictError reports an illegal deal transition.
type DealStateConflictError struct {
	DealID  string
	Current DealStatus
	Attempt string
}

func (e *DealStateConflictError) Error() string {
	return fmt.Sprintf("deal %s: cannot %s while %s", e.DealID, e.Attempt, e.Current)
}

// InsufficientDealBalanceError reports a utilisation that exceeds the
// remaining balance.
type InsufficientDealBalanceError struct {
	DealID    string
	Requested float64
	Remaining float64
}

func (e *InsufficientDealBalanceError) Error() string {
	return fmt.Sprintf("deal %s: requested %.2f exceeds remaining %.2f", e.DealID, e.Requested, e.Remaining)
}

// ReferenceDataConflictError reports a duplicate key or an in-use
// delete on a reference table.
type ReferenceDataConflictError struct {
	Table  string
	Key    string
	Reason string
}

func (e *ReferenceDataConflictError) Error() string {
	return fmt.Sprintf("%s[%s]: %s", e.Table, e.Key, e.Reason)
}

// RuleEvaluationError reports a malformed rule. The rule is skipped and
// the request continues.
type RuleEvaluationError struct {
	RuleID string
	Err    error
}

func (e *RuleEvaluationError) Error() string {
	return fmt.Sprintf("rule %s: %v", e.RuleID, e.Err)
}

func (e *RuleEvaluationError) Unwrap() error { return e.Err }

// PersistenceError reports a failed durable write. The pending state
// change is rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// TemplateInapplicableError reports why a route template cannot be
// materialised for a request. It is a diagnostic, not a failure.
type TemplateInapplicableError struct {
	Template string
	Reason   string
}

func (e *TemplateInapplicableError) Error() string {
	return fmt.Sprintf("template %s inapplicable: %s", e.Template, e.Reason)
}
