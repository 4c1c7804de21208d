package rules

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintaar/crossrail/internal/domain"
)

func f64(v float64) *float64 { return &v }

func providerRule(id string, priority int, crit []Criterion, action ProviderSelectionAction) Rule {
	return Rule{
		RuleID:     id,
		RuleName:   id,
		RuleType:   TypeProviderSelection,
		Priority:   priority,
		Enabled:    true,
		Conditions: Conditions{Operator: OpAnd, Criteria: crit},
		Actions:    Actions{ProviderSelection: &action},
	}
}

func marginRule(id string, priority int, crit []Criterion, action MarginAdjustmentAction) Rule {
	return Rule{
		RuleID:     id,
		RuleName:   id,
		RuleType:   TypeMarginAdjustment,
		Priority:   priority,
		Enabled:    true,
		Conditions: Conditions{Operator: OpAnd, Criteria: crit},
		Actions:    Actions{MarginAdjustment: &action},
	}
}

func emptyEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("", "")
	require.NoError(t, err)
	return e
}

func TestCriterionOperators(t *testing.T) {
	ctx := Context{
		"customer_segment": "SMALL_BUSINESS",
		"amount":           75_000.0,
		"currency_pair":    "USDINR",
		"time_of_day":      "23:30",
	}
	cases := []struct {
		name string
		c    Criterion
		want bool
	}{
		{"equals", Criterion{Field: "customer_segment", Operator: CritEquals, Value: "SMALL_BUSINESS"}, true},
		{"not equals", Criterion{Field: "customer_segment", Operator: CritNotEquals, Value: "RETAIL"}, true},
		{"in", Criterion{Field: "customer_segment", Operator: CritIn, Values: []interface{}{"RETAIL", "SMALL_BUSINESS"}}, true},
		{"not in", Criterion{Field: "customer_segment", Operator: CritNotIn, Values: []interface{}{"RETAIL"}}, true},
		{"gt", Criterion{Field: "amount", Operator: CritGT, Value: 50_000}, true},
		{"ge boundary", Criterion{Field: "amount", Operator: CritGE, Value: 75_000.0}, true},
		{"lt fails", Criterion{Field: "amount", Operator: CritLT, Value: 75_000.0}, false},
		{"between inclusive", Criterion{Field: "amount", Operator: CritBetween, Values: []interface{}{50_000, 75_000}}, true},
		{"contains", Criterion{Field: "currency_pair", Operator: CritContains, Value: "INR"}, true},
		{"starts with", Criterion{Field: "currency_pair", Operator: CritStartsWith, Value: "USD"}, true},
		{"ends with", Criterion{Field: "currency_pair", Operator: CritEndsWith, Value: "INR"}, true},
		{"outside hours true", Criterion{Field: "time_of_day", Operator: CritOutsideHours, Values: []interface{}{"09:00", "17:00"}}, true},
		{"outside hours false", Criterion{Field: "time_of_day", Operator: CritOutsideHours, Values: []interface{}{"22:00", "02:00"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, evalCriterion(tc.c, ctx))
		})
	}
}

func TestMissingFieldThreeValuedCollapse(t *testing.T) {
	ctx := Context{}
	assert.False(t, evalCriterion(Criterion{Field: "office", Operator: CritEquals, Value: "SG"}, ctx))
	assert.False(t, evalCriterion(Criterion{Field: "amount", Operator: CritGT, Value: 1}, ctx))
	assert.True(t, evalCriterion(Criterion{Field: "office", Operator: CritNotEquals, Value: "SG"}, ctx))
	assert.True(t, evalCriterion(Criterion{Field: "office", Operator: CritNotIn, Values: []interface{}{"SG"}}, ctx))
}

func TestAndOrCombination(t *testing.T) {
	ctx := Context{"customer_tier": "GOLD", "amount": 100.0}
	and := providerRule("r1", 10, []Criterion{
		{Field: "customer_tier", Operator: CritEquals, Value: "GOLD"},
		{Field: "amount", Operator: CritGT, Value: 1_000},
	}, ProviderSelectionAction{})
	assert.False(t, and.matches(ctx))

	or := and
	or.Conditions.Operator = OpOr
	assert.True(t, or.matches(ctx))
}

func TestActionsRejectUnknownTag(t *testing.T) {
	raw := []byte(`{"settlement_override": {"venue": "X"}}`)
	var a Actions
	assert.Error(t, json.Unmarshal(raw, &a))
}

func TestValidateRejectsMismatchedAction(t *testing.T) {
	r := providerRule("r1", 10, []Criterion{{Field: "x", Operator: CritEquals, Value: 1}}, ProviderSelectionAction{})
	r.Actions.MarginAdjustment = &MarginAdjustmentAction{AdditionalBps: 5}
	assert.Error(t, r.Validate())
}

func TestLoadSkipsInvalidRuleKeepsRest(t *testing.T) {
	dir := t.TempDir()
	good := providerRule("good", 50, []Criterion{{Field: "customer_tier", Operator: CritEquals, Value: "GOLD"}}, ProviderSelectionAction{PreferredProviders: []string{"WISE"}})
	bad := good
	bad.RuleID = "bad"
	bad.Priority = 5000 // out of range

	raw, err := json.Marshal([]Rule{good, bad})
	require.NoError(t, err)
	path := filepath.Join(dir, "provider_rules.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	e, err := NewEngine(path, "")
	require.NoError(t, err)
	rules := e.List(TypeProviderSelection)
	require.Len(t, rules, 1)
	assert.Equal(t, "good", rules[0].RuleID)
}

func TestReloadIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	r := providerRule("r1", 50, []Criterion{{Field: "customer_tier", Operator: CritEquals, Value: "GOLD"}}, ProviderSelectionAction{PreferredProviders: []string{"WISE"}})
	raw, err := json.Marshal([]Rule{r})
	require.NoError(t, err)
	path := filepath.Join(dir, "provider_rules.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	e, err := NewEngine(path, "")
	require.NoError(t, err)
	ctx := Context{"customer_tier": "GOLD"}
	first := e.ProviderSelection(ctx, time.Now())

	require.NoError(t, e.Load())
	second := e.ProviderSelection(ctx, time.Now())
	assert.Equal(t, first, second, "reloading the same file twice yields the same decisions")
}

func TestProviderDecisionFolding(t *testing.T) {
	e := emptyEngine(t)
	crit := []Criterion{{Field: "customer_segment", Operator: CritEquals, Value: "SMALL_BUSINESS"}}
	require.NoError(t, e.Add(providerRule("high", 90, crit, ProviderSelectionAction{PreferredProviders: []string{"WISE"}, ObjectiveOverride: "BEST_RATE"})))
	require.NoError(t, e.Add(providerRule("low", 10, crit, ProviderSelectionAction{PreferredProviders: []string{"WISE"}, ExcludedProviders: []string{"GS_DEALER"}})))

	d := e.ProviderSelection(Context{"customer_segment": "SMALL_BUSINESS"}, time.Now())
	assert.Equal(t, 2, d.PreferredCount["WISE"], "one bonus per listing rule")
	assert.True(t, d.Excluded["GS_DEALER"])
	assert.Equal(t, domain.ObjectiveBestRate, d.ObjectiveOverride)
	assert.Equal(t, []string{"high", "low"}, d.AppliedRules, "applied in priority-descending order")
}

func TestMarginDecisionFolding(t *testing.T) {
	e := emptyEngine(t)
	crit := []Criterion{{Field: "currency_category", Operator: CritEquals, Value: "RESTRICTED"}}
	require.NoError(t, e.Add(marginRule("m1", 80, crit, MarginAdjustmentAction{AdditionalBps: 10, TierMultiplier: f64(1.5)})))
	require.NoError(t, e.Add(marginRule("m2", 40, crit, MarginAdjustmentAction{AdditionalBps: 5, MaxMarginBps: f64(400)})))

	d := e.MarginAdjustment(Context{"currency_category": "RESTRICTED"}, time.Now())
	assert.Equal(t, 15.0, d.AdditionalBps)
	assert.Equal(t, 1.5, d.TierMultiplier)
	require.NotNil(t, d.MaxOverride)
	assert.Equal(t, 400.0, *d.MaxOverride)
}

func TestValidityWindowAndToggle(t *testing.T) {
	e := emptyEngine(t)
	crit := []Criterion{{Field: "customer_tier", Operator: CritEquals, Value: "GOLD"}}
	past := time.Now().Add(-time.Hour)
	r := providerRule("windowed", 50, crit, ProviderSelectionAction{PreferredProviders: []string{"WISE"}})
	r.ValidFrom = time.Now().Add(-2 * time.Hour)
	r.ValidUntil = &past
	require.NoError(t, e.Add(r))

	d := e.ProviderSelection(Context{"customer_tier": "GOLD"}, time.Now())
	assert.Empty(t, d.AppliedRules, "expired rules never match")

	enabled, err := e.Toggle("windowed")
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, e.Delete("windowed"))
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, e.Delete("windowed"), &notFound)
}

func TestAddDuplicateConflicts(t *testing.T) {
	e := emptyEngine(t)
	crit := []Criterion{{Field: "x", Operator: CritEquals, Value: "1"}}
	require.NoError(t, e.Add(providerRule("dup", 10, crit, ProviderSelectionAction{})))
	var conflict *domain.ReferenceDataConflictError
	assert.ErrorAs(t, e.Add(providerRule("dup", 10, crit, ProviderSelectionAction{})), &conflict)
}
