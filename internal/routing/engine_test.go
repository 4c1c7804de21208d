package routing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintaar/crossrail/internal/domain"
	"github.com/fintaar/crossrail/internal/rates"
	"github.com/fintaar/crossrail/internal/refdata"
	"github.com/fintaar/crossrail/internal/rules"
)

// businessHours keeps operating-hour checks deterministic.
var businessHours = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, static *rates.StaticSource) (*Engine, *rules.Engine) {
	t.Helper()
	registry, err := refdata.New("")
	require.NoError(t, err)
	ruleEngine, err := rules.NewEngine("", "")
	require.NoError(t, err)
	if static == nil {
		static = rates.NewStaticSource(nil)
	}
	source := rates.NewCachedSource(static, rates.Options{TTL: time.Minute, StaleFor: time.Hour})
	return NewEngine(registry, source, ruleEngine, Options{}), ruleEngine
}

func TestRecommendFiatBestRate(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	rec, err := e.Recommend(context.Background(), Request{
		Source: "USD", Target: "INR", Amount: 100_000,
		Side: domain.SideSell, Tier: "GOLD", Objective: domain.ObjectiveBestRate,
		Timestamp: businessHours,
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.Providers)

	head := rec.Providers[0]
	assert.Equal(t, "TREASURY_INTERNAL", head.ProviderID)

	// markup 15 bps discounted 30% for GOLD
	assert.InDelta(t, 10.5, head.AdjustedMarkupBps, 1e-9)
	assert.InDelta(t, 1-10.5/100, head.SubScores.Rate, 1e-9)

	// ask 84.58, LONG bias -3, markup 10.5, spread reduction 5
	wantRate := 84.58 * (1 - (-3+10.5-5)/10000)
	assert.InDelta(t, wantRate, head.EffectiveRate, 1e-6)
	assert.Equal(t, domain.RateFirm, rec.RateType)
}

func TestRecommendIsDeterministic(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	req := Request{
		Source: "USD", Target: "INR", Amount: 100_000,
		Side: domain.SideSell, Tier: "GOLD", Objective: domain.ObjectiveOptimum,
		Timestamp: businessHours,
	}
	first, err := e.Recommend(context.Background(), req)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Recommend(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, again.Providers, len(first.Providers))
		for j := range first.Providers {
			assert.Equal(t, first.Providers[j].ProviderID, again.Providers[j].ProviderID)
		}
	}
}

func TestObjectiveChangesRanking(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	base := Request{
		Source: "USD", Target: "INR", Amount: 100_000,
		Side: domain.SideSell, Tier: "RETAIL", Timestamp: businessHours,
	}
	_ = base
	// RETAIL caps transactions at 100k; use 50k
	base.Amount = 50_000

	best := base
	best.Objective = domain.ObjectiveBestRate
	recBest, err := e.Recommend(context.Background(), best)
	require.NoError(t, err)

	fast := base
	fast.Objective = domain.ObjectiveFastestExecution
	recFast, err := e.Recommend(context.Background(), fast)
	require.NoError(t, err)

	// under FASTEST_EXECUTION the low-latency desk stays ahead but the
	// scores shift toward the speed component
	assert.Greater(t, recFast.Providers[0].SubScores.Speed, 0.8)
	assert.GreaterOrEqual(t, recBest.Providers[0].SubScores.Rate, recFast.Providers[len(recFast.Providers)-1].SubScores.Rate)
}

func TestRuleBonusFlipsRecommendation(t *testing.T) {
	e, ruleEngine := newTestEngine(t, nil)
	req := Request{
		Source: "USD", Target: "INR", Amount: 50_000,
		Side: domain.SideSell, Tier: "RETAIL", Segment: "SMALL_BUSINESS",
		Objective: domain.ObjectiveBestRate, Timestamp: businessHours,
	}

	before, err := e.Recommend(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "TREASURY_INTERNAL", before.Providers[0].ProviderID)

	require.NoError(t, ruleEngine.Add(rules.Rule{
		RuleID:   "prefer-wise-smb",
		RuleName: "Prefer Wise for small business",
		RuleType: rules.TypeProviderSelection,
		Priority: 90,
		Enabled:  true,
		Conditions: rules.Conditions{Operator: rules.OpAnd, Criteria: []rules.Criterion{
			{Field: "customer_segment", Operator: rules.CritEquals, Value: "SMALL_BUSINESS"},
			{Field: "routing_objective", Operator: rules.CritEquals, Value: "BEST_RATE"},
		}},
		Actions: rules.Actions{ProviderSelection: &rules.ProviderSelectionAction{PreferredProviders: []string{"WISE"}}},
	}))

	after, err := e.Recommend(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "WISE", after.Providers[0].ProviderID, "the +0.05 bonus closes the gap")
	for _, p := range after.Providers {
		if p.ProviderID == "WISE" {
			assert.InDelta(t, 0.05, p.RuleBonus, 1e-9)
		}
	}
	assert.Contains(t, after.AppliedRules, "prefer-wise-smb")
}

func TestRuleExclusionAndForce(t *testing.T) {
	e, ruleEngine := newTestEngine(t, nil)
	req := Request{
		Source: "USD", Target: "INR", Amount: 50_000,
		Side: domain.SideSell, Tier: "RETAIL", Timestamp: businessHours,
	}

	require.NoError(t, ruleEngine.Add(rules.Rule{
		RuleID:   "force-dbs",
		RuleName: "Force DBS",
		RuleType: rules.TypeProviderSelection,
		Priority: 99,
		Enabled:  true,
		Conditions: rules.Conditions{Operator: rules.OpAnd, Criteria: []rules.Criterion{
			{Field: "currency_pair", Operator: rules.CritEquals, Value: "USDINR"},
		}},
		Actions: rules.Actions{ProviderSelection: &rules.ProviderSelectionAction{PreferredProviders: []string{"DBS_LOCAL"}, ForceProvider: true}},
	}))

	rec, err := e.Recommend(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, rec.Providers, 1)
	assert.Equal(t, "DBS_LOCAL", rec.Providers[0].ProviderID)
}

func TestNoEligibleProviderDiagnostics(t *testing.T) {
	// USDMYR is quoted but only wildcard providers carry it; push the
	// desk over its exposure limit and the fintech over its daily cap.
	static := rates.NewStaticSource(nil)
	static.Set(domain.TreasuryRate{
		Pair: "USDMYR", Bid: 4.46, Mid: 4.465, Ask: 4.47,
		MaxExposure: 1_000_000, CurrentExposure: 950_000, Position: domain.PositionNeutral,
	})
	e, _ := newTestEngine(t, static)

	_, err := e.Recommend(context.Background(), Request{
		Source: "USD", Target: "MYR", Amount: 2_000_000,
		Side: domain.SideSell, Tier: "PLATINUM", Timestamp: businessHours,
	})
	var noRoute *domain.NoEligibleProviderError
	require.ErrorAs(t, err, &noRoute)
	assert.Equal(t, "treasury exposure limit reached", noRoute.Exclusions["TREASURY_INTERNAL"])
	assert.Contains(t, noRoute.Exclusions["WISE"], "daily limit")
}

func TestRateUnavailable(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	_, err := e.Recommend(context.Background(), Request{
		Source: "XAU", Target: "XAG", Amount: 1_000,
		Side: domain.SideSell, Tier: "RETAIL", Timestamp: businessHours,
	})
	var unavailable *domain.RateUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestTierMaxTransaction(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	_, err := e.Recommend(context.Background(), Request{
		Source: "USD", Target: "INR", Amount: 150_000,
		Side: domain.SideSell, Tier: "RETAIL", Timestamp: businessHours,
	})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSTPVerdict(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	small, err := e.Recommend(context.Background(), Request{
		Source: "USD", Target: "INR", Amount: 50_000,
		Side: domain.SideSell, Tier: "GOLD", Objective: domain.ObjectiveBestRate,
		Timestamp: businessHours,
	})
	require.NoError(t, err)
	assert.True(t, small.STP.Eligible)

	big, err := e.Recommend(context.Background(), Request{
		Source: "USD", Target: "INR", Amount: 5_000_000,
		Side: domain.SideSell, Tier: "GOLD", Objective: domain.ObjectiveBestRate,
		Timestamp: businessHours,
	})
	require.NoError(t, err)
	assert.True(t, big.STP.RequiresApproval, "above the tier STP threshold")
	assert.Contains(t, big.STP.Reason, "STP threshold")
}

func TestExposureWarning(t *testing.T) {
	static := rates.NewStaticSource(nil)
	static.Set(domain.TreasuryRate{
		Pair: "USDINR", Bid: 84.42, Mid: 84.50, Ask: 84.58,
		MaxExposure: 10_000_000, CurrentExposure: 8_000_000, Position: domain.PositionLong,
	})
	e, _ := newTestEngine(t, static)

	rec, err := e.Recommend(context.Background(), Request{
		Source: "USD", Target: "INR", Amount: 100_000,
		Side: domain.SideSell, Tier: "GOLD", Timestamp: businessHours,
	})
	require.NoError(t, err)
	found := false
	for _, w := range rec.Warnings {
		if strings.Contains(w, "exposure") {
			found = true
		}
	}
	assert.True(t, found, "exposure above 70%% should warn, got %v", rec.Warnings)
}

func TestTriangulationAdvisoryPresent(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	rec, err := e.Recommend(context.Background(), Request{
		Source: "USD", Target: "INR", Amount: 100_000,
		Side: domain.SideSell, Tier: "GOLD", Timestamp: businessHours,
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Triangulation)
	// bridging costs an extra spread, so the direct route should win here
	assert.False(t, rec.Triangulation.Recommended)
	assert.Less(t, rec.Triangulation.SavingsBps, 10.0)
}
