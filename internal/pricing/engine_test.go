package pricing

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintaar/crossrail/internal/domain"
	"github.com/fintaar/crossrail/internal/rates"
	"github.com/fintaar/crossrail/internal/refdata"
	"github.com/fintaar/crossrail/internal/rules"
)

func newTestEngine(t *testing.T) (*Engine, *refdata.Registry, *rules.Engine) {
	t.Helper()
	registry, err := refdata.New("")
	require.NoError(t, err)
	ruleEngine, err := rules.NewEngine("", "")
	require.NoError(t, err)
	source := rates.NewCachedSource(rates.NewStaticSource(nil), rates.Options{TTL: time.Minute, StaleFor: time.Hour})
	return NewEngine(registry, source, ruleEngine, time.Minute, time.UTC), registry, ruleEngine
}

func TestQuoteMarginClamp(t *testing.T) {
	e, _, _ := newTestEngine(t)

	// MID_MARKET, 1000 USD->INR: base 75 + tier 50 + restricted 100 = 225,
	// clamped to the segment max of 150.
	q, err := e.Quote(context.Background(), QuoteRequest{
		Source: "USD", Target: "INR", Amount: 1_000,
		Segment: "MID_MARKET", Direction: domain.SideSell,
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, q.MarginBps)
	assert.Equal(t, "TIER_1", q.AmountTier)
	assert.Equal(t, "RESTRICTED", q.CurrencyCategory)
	assert.Equal(t, domain.RateFirm, q.RateType)
}

func TestQuoteRateDiffersFromMidByMargin(t *testing.T) {
	e, _, _ := newTestEngine(t)

	q, err := e.Quote(context.Background(), QuoteRequest{
		Source: "USD", Target: "INR", Amount: 250_000,
		Segment: "LARGE_CORPORATE", Direction: domain.SideSell,
	})
	require.NoError(t, err)

	impliedBps := (q.MidRate - q.CustomerRate) / q.MidRate * 10000
	assert.InDelta(t, q.MarginBps, impliedBps, 1.0, "customer rate differs from mid by exactly the composed margin")
	assert.GreaterOrEqual(t, q.MarginBps, 10.0)
	assert.LessOrEqual(t, q.MarginBps, 75.0)
}

func TestQuoteBuyDirection(t *testing.T) {
	e, _, _ := newTestEngine(t)

	q, err := e.Quote(context.Background(), QuoteRequest{
		Source: "USD", Target: "INR", Amount: 250_000,
		Segment: "LARGE_CORPORATE", Direction: domain.SideBuy,
	})
	require.NoError(t, err)
	assert.Greater(t, q.CustomerRate, q.MidRate, "BUY worsens the rate upward")
	assert.InDelta(t, q.Amount/q.CustomerRate, q.TargetAmount, q.TargetAmount*1e-4)
}

func TestQuoteTargetAmountRoundTrip(t *testing.T) {
	e, _, _ := newTestEngine(t)

	q, err := e.Quote(context.Background(), QuoteRequest{
		Source: "USD", Target: "SGD", Amount: 50_000,
		Segment: "MID_MARKET", Direction: domain.SideSell,
	})
	require.NoError(t, err)
	recomputed := q.Amount * q.CustomerRate
	assert.InDelta(t, q.TargetAmount, recomputed, math.Abs(q.TargetAmount)*1e-4, "within 1 bp")
}

func TestQuoteCrossRateViaUSD(t *testing.T) {
	e, _, _ := newTestEngine(t)

	q, err := e.Quote(context.Background(), QuoteRequest{
		Source: "GBP", Target: "SGD", Amount: 20_000,
		Segment: "INSTITUTIONAL", Direction: domain.SideSell,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.2650*1.3400, q.MidRate, 1e-6)
}

func TestQuoteNegotiatedDiscountOnlyWhereAllowed(t *testing.T) {
	e, registry, _ := newTestEngine(t)
	snap := registry.Snapshot()
	snap.NegotiatedDiscounts["CUST-ACME"] = 10

	base := QuoteRequest{Source: "USD", Target: "SGD", Amount: 250_000, CustomerID: "CUST-ACME", Direction: domain.SideSell}

	allowed := base
	allowed.Segment = "LARGE_CORPORATE" // negotiated rates allowed
	qa, err := e.Quote(context.Background(), allowed)
	require.NoError(t, err)
	assert.Equal(t, 10.0, qa.MarginBreakdown.NegotiatedDiscount)

	blocked := base
	blocked.Segment = "MID_MARKET" // not allowed
	qb, err := e.Quote(context.Background(), blocked)
	require.NoError(t, err)
	assert.Equal(t, 0.0, qb.MarginBreakdown.NegotiatedDiscount)
}

func TestQuoteMarginRuleAdjustment(t *testing.T) {
	e, _, ruleEngine := newTestEngine(t)
	maxOverride := 400.0
	require.NoError(t, ruleEngine.Add(rules.Rule{
		RuleID:   "restricted-surcharge",
		RuleName: "Restricted currency surcharge",
		RuleType: rules.TypeMarginAdjustment,
		Priority: 50,
		Enabled:  true,
		Conditions: rules.Conditions{Operator: rules.OpAnd, Criteria: []rules.Criterion{
			{Field: "currency_category", Operator: rules.CritEquals, Value: "RESTRICTED"},
		}},
		Actions: rules.Actions{MarginAdjustment: &rules.MarginAdjustmentAction{AdditionalBps: 20, MaxMarginBps: &maxOverride}},
	}))

	q, err := e.Quote(context.Background(), QuoteRequest{
		Source: "USD", Target: "INR", Amount: 1_000,
		Segment: "MID_MARKET", Direction: domain.SideSell,
	})
	require.NoError(t, err)
	// base 75 + tier 50 + currency 100 + rule 20 = 245; rule lifts the
	// clamp ceiling from 150 to 400, so no clamping occurs.
	assert.Equal(t, 245.0, q.MarginBps)
}

func TestQuoteValidationErrors(t *testing.T) {
	e, _, _ := newTestEngine(t)
	var verr *domain.ValidationError

	_, err := e.Quote(context.Background(), QuoteRequest{Source: "USD", Target: "INR", Amount: 0, Segment: "RETAIL", Direction: domain.SideSell})
	assert.ErrorAs(t, err, &verr)

	_, err = e.Quote(context.Background(), QuoteRequest{Source: "USD", Target: "USD", Amount: 10, Segment: "RETAIL", Direction: domain.SideSell})
	assert.ErrorAs(t, err, &verr)

	_, err = e.Quote(context.Background(), QuoteRequest{Source: "USD", Target: "INR", Amount: 10, Segment: "MEGACORP", Direction: domain.SideSell})
	assert.ErrorAs(t, err, &verr)

	var unavailable *domain.RateUnavailableError
	_, err = e.Quote(context.Background(), QuoteRequest{Source: "XAU", Target: "XAG", Amount: 10, Segment: "RETAIL", Direction: domain.SideSell})
	assert.ErrorAs(t, err, &unavailable)
}
