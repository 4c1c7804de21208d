package rules

import (
	"time"

	"github.com/fintaar/crossrail/internal/domain"
)

// ProviderDecision is the folded outcome of the matching
// PROVIDER_SELECTION rules.
type ProviderDecision struct {
	// PreferredCount maps provider id to the number of rules listing
	// it; the router grants one score bonus per listing rule.
	PreferredCount    map[string]int
	Excluded          map[string]bool
	ObjectiveOverride domain.Objective
	ForceProvider     string
	AppliedRules      []string
}

// MarginDecision is the folded outcome of the matching
// MARGIN_ADJUSTMENT rules.
type MarginDecision struct {
	BaseOverride   *float64
	AdditionalBps  float64
	TierMultiplier float64
	MinOverride    *float64
	MaxOverride    *float64
	AppliedRules   []string
}

// ProviderSelection evaluates and folds the provider rules for ctx.
// Rules apply in priority-descending order; scalar fields set by a
// later rule overwrite earlier ones.
func (e *Engine) ProviderSelection(ctx Context, now time.Time) ProviderDecision {
	d := ProviderDecision{
		PreferredCount: map[string]int{},
		Excluded:       map[string]bool{},
	}
	for _, r := range e.Matching(TypeProviderSelection, ctx, now) {
		a := r.Actions.ProviderSelection
		if a == nil {
			continue
		}
		for _, p := range a.PreferredProviders {
			d.PreferredCount[p]++
		}
		for _, p := range a.ExcludedProviders {
			d.Excluded[p] = true
		}
		if a.ObjectiveOverride != "" {
			d.ObjectiveOverride = domain.Objective(a.ObjectiveOverride)
		}
		if a.ForceProvider && len(a.PreferredProviders) > 0 {
			d.ForceProvider = a.PreferredProviders[0]
		}
		d.AppliedRules = append(d.AppliedRules, r.RuleID)
	}
	return d
}

// MarginAdjustment evaluates and folds the margin rules for ctx.
func (e *Engine) MarginAdjustment(ctx Context, now time.Time) MarginDecision {
	d := MarginDecision{TierMultiplier: 1}
	for _, r := range e.Matching(TypeMarginAdjustment, ctx, now) {
		a := r.Actions.MarginAdjustment
		if a == nil {
			continue
		}
		if a.BaseMarginOverride != nil {
			d.BaseOverride = a.BaseMarginOverride
		}
		d.AdditionalBps += a.AdditionalBps
		if a.TierMultiplier != nil {
			d.TierMultiplier *= *a.TierMultiplier
		}
		if a.MinMarginBps != nil {
			d.MinOverride = a.MinMarginBps
		}
		if a.MaxMarginBps != nil {
			d.MaxOverride = a.MaxMarginBps
		}
		d.AppliedRules = append(d.AppliedRules, r.RuleID)
	}
	return d
}
