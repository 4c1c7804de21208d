// Package rules implements the JSON-declared condition/action system
// that injects provider preferences and margin overrides into routing
// and pricing.
package rules

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fintaar/crossrail/internal/domain"
)

// RuleType selects which decision a rule feeds.
type RuleType string

const (
	TypeProviderSelection RuleType = "PROVIDER_SELECTION"
	TypeMarginAdjustment  RuleType = "MARGIN_ADJUSTMENT"
)

// ConditionOperator combines criteria.
type ConditionOperator string

const (
	OpAnd ConditionOperator = "AND"
	OpOr  ConditionOperator = "OR"
)

// CriterionOperator compares one context field.
type CriterionOperator string

const (
	CritEquals       CriterionOperator = "EQUALS"
	CritNotEquals    CriterionOperator = "NOT_EQUALS"
	CritIn           CriterionOperator = "IN"
	CritNotIn        CriterionOperator = "NOT_IN"
	CritGT           CriterionOperator = "GT"
	CritGE           CriterionOperator = "GE"
	CritLT           CriterionOperator = "LT"
	CritLE           CriterionOperator = "LE"
	CritBetween      CriterionOperator = "BETWEEN"
	CritContains     CriterionOperator = "CONTAINS"
	CritStartsWith   CriterionOperator = "STARTS_WITH"
	CritEndsWith     CriterionOperator = "ENDS_WITH"
	CritOutsideHours CriterionOperator = "OUTSIDE_HOURS"
)

// Criterion is one field comparison.
type Criterion struct {
	Field    string            `json:"field"`
	Operator CriterionOperator `json:"operator"`
	Value    interface{}       `json:"value,omitempty"`
	Values   []interface{}     `json:"values,omitempty"`
}

// Conditions combines criteria under AND or OR.
type Conditions struct {
	Operator ConditionOperator `json:"operator"`
	Criteria []Criterion       `json:"criteria"`
}

// ProviderSelectionAction steers the router.
type ProviderSelectionAction struct {
	PreferredProviders []string `json:"preferred_providers,omitempty"`
	ExcludedProviders  []string `json:"excluded_providers,omitempty"`
	ObjectiveOverride  string   `json:"routing_objective_override,omitempty"`
	ForceProvider      bool     `json:"force_provider,omitempty"`
}

// MarginAdjustmentAction steers the pricing engine.
type MarginAdjustmentAction struct {
	BaseMarginOverride *float64 `json:"base_margin_override,omitempty"`
	AdditionalBps      float64  `json:"additional_margin_bps,omitempty"`
	TierMultiplier     *float64 `json:"tier_adjustment_multiplier,omitempty"`
	MinMarginBps       *float64 `json:"min_margin_bps,omitempty"`
	MaxMarginBps       *float64 `json:"max_margin_bps,omitempty"`
}

// Actions is the tagged action variant. Exactly the tag matching the
// rule's type must be present; unknown tags are rejected at load.
type Actions struct {
	ProviderSelection *ProviderSelectionAction `json:"provider_selection,omitempty"`
	MarginAdjustment  *MarginAdjustmentAction  `json:"margin_adjustment,omitempty"`
}

// UnmarshalJSON rejects unknown action tags instead of silently
// dropping them.
func (a *Actions) UnmarshalJSON(raw []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return err
	}
	for k := range keys {
		switch k {
		case "provider_selection", "margin_adjustment":
		default:
			return fmt.Errorf("unknown action tag %q", k)
		}
	}
	type plain Actions
	var p plain
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	*a = Actions(p)
	return nil
}

// Metadata carries rule provenance.
type Metadata struct {
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// Rule is one declared rule.
type Rule struct {
	RuleID     string     `json:"rule_id"`
	RuleName   string     `json:"rule_name"`
	RuleType   RuleType   `json:"rule_type"`
	Priority   int        `json:"priority"`
	Enabled    bool       `json:"enabled"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	Conditions Conditions `json:"conditions"`
	Actions    Actions    `json:"actions"`
	Metadata   Metadata   `json:"metadata"`
}

// Validate checks structural consistency of a rule.
func (r *Rule) Validate() error {
	if r.RuleID == "" {
		return domain.Validationf("rule_id", "required")
	}
	switch r.RuleType {
	case TypeProviderSelection:
		if r.Actions.ProviderSelection == nil {
			return domain.Validationf("actions", "rule %s: provider_selection action required", r.RuleID)
		}
		if r.Actions.MarginAdjustment != nil {
			return domain.Validationf("actions", "rule %s: margin_adjustment action on a PROVIDER_SELECTION rule", r.RuleID)
		}
	case TypeMarginAdjustment:
		if r.Actions.MarginAdjustment == nil {
			return domain.Validationf("actions", "rule %s: margin_adjustment action required", r.RuleID)
		}
		if r.Actions.ProviderSelection != nil {
			return domain.Validationf("actions", "rule %s: provider_selection action on a MARGIN_ADJUSTMENT rule", r.RuleID)
		}
	default:
		return domain.Validationf("rule_type", "rule %s: unknown type %q", r.RuleID, r.RuleType)
	}
	if r.Priority < 0 || r.Priority > 1000 {
		return domain.Validationf("priority", "rule %s: priority %d out of [0,1000]", r.RuleID, r.Priority)
	}
	switch r.Conditions.Operator {
	case OpAnd, OpOr:
	default:
		return domain.Validationf("conditions", "rule %s: unknown operator %q", r.RuleID, r.Conditions.Operator)
	}
	if len(r.Conditions.Criteria) == 0 {
		return domain.Validationf("conditions", "rule %s: at least one criterion required", r.RuleID)
	}
	return nil
}

// ActiveAt reports whether the rule is enabled and inside its validity
// window at t.
func (r *Rule) ActiveAt(t time.Time) bool {
	if !r.Enabled {
		return false
	}
	if !r.ValidFrom.IsZero() && t.Before(r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && t.After(*r.ValidUntil) {
		return false
	}
	return true
}

// Context is the flat evaluation context: customer_segment,
// customer_tier, currency_pair, currency_category, amount, amount_tier,
// office, time_of_day and any custom attributes.
type Context map[string]interface{}
