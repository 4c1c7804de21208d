package multirail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintaar/crossrail/internal/domain"
	"github.com/fintaar/crossrail/internal/rates"
	"github.com/fintaar/crossrail/internal/refdata"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	registry, err := refdata.New("")
	require.NoError(t, err)
	source := rates.NewCachedSource(rates.NewStaticSource(nil), rates.Options{TTL: time.Minute, StaleFor: time.Hour})
	return NewRouter(registry, source)
}

func TestMBridgeCorridor(t *testing.T) {
	r := newTestRouter(t)
	resp, err := r.Route(context.Background(), Request{Source: "e-CNY", Target: "e-AED", Amount: 500_000})
	require.NoError(t, err)

	require.NotNil(t, resp.BestRoute)
	assert.Equal(t, domain.RailCBDC, resp.BestRoute.Rail)
	assert.Equal(t, "MBRIDGE_PVP", resp.BestRoute.Template)
	assert.Equal(t, 13.0, resp.BestRoute.FeeBps)
	assert.LessOrEqual(t, resp.BestRoute.SettlementSeconds, 30)
	assert.True(t, resp.BestRoute.Annotations.MBridge)

	templates := map[string]bool{}
	for _, rt := range resp.AllRoutes {
		templates[rt.Template] = true
	}
	assert.True(t, templates["PROJECT_NEXUS"])
	assert.True(t, templates["FIAT_BRIDGE"])

	require.NotNil(t, resp.FiatRoute)
	assert.Equal(t, "FIAT_BRIDGE", resp.FiatRoute.Template)
}

func TestAtomicSwapExperimental(t *testing.T) {
	r := newTestRouter(t)

	open, err := r.Route(context.Background(), Request{Source: "e-INR", Target: "USDC", Amount: 50_000})
	require.NoError(t, err)

	var swap *domain.Route
	for i := range open.AllRoutes {
		if open.AllRoutes[i].Template == "ATOMIC_SWAP" {
			swap = &open.AllRoutes[i]
		}
	}
	require.NotNil(t, swap, "atomic swap corridor exists for e-INR/USDC")
	assert.True(t, swap.Annotations.Experimental)
	assert.Equal(t, 5.0, swap.FeeBps)
	assert.Equal(t, 300, swap.SettlementSeconds)
	assert.False(t, swap.Regulated)

	closed, err := r.Route(context.Background(), Request{Source: "e-INR", Target: "USDC", Amount: 50_000, FilterRegulated: true})
	require.NoError(t, err)
	for _, rt := range closed.AllRoutes {
		assert.NotEqual(t, "ATOMIC_SWAP", rt.Template)
		assert.True(t, rt.Regulated)
	}
	assert.Equal(t, "FIAT_BRIDGE", closed.BestRoute.Template)

	found := false
	for _, w := range closed.Warnings {
		if w != "" {
			found = true
		}
	}
	assert.True(t, found, "suppressed routes should be surfaced as a warning")
}

func TestFiatToFiatCatalogue(t *testing.T) {
	r := newTestRouter(t)
	resp, err := r.Route(context.Background(), Request{Source: "USD", Target: "INR", Amount: 100_000})
	require.NoError(t, err)

	assert.Equal(t, domain.RailFiat, resp.SourceRail)
	assert.Equal(t, domain.RailFiat, resp.TargetRail)
	require.Len(t, resp.AllRoutes, 4)
	// the 6 bps fintech corridor dominates under the default objective
	assert.Equal(t, "FINTECH", resp.BestRoute.Template)
}

func TestDirectMintBeatsFXThenMint(t *testing.T) {
	r := newTestRouter(t)

	resp, err := r.Route(context.Background(), Request{Source: "CNY", Target: "e-CNY", Amount: 100_000})
	require.NoError(t, err)
	assert.Equal(t, "DIRECT_MINT", resp.BestRoute.Template)
	for _, rt := range resp.AllRoutes {
		assert.NotEqual(t, "FX_THEN_MINT", rt.Template, "direct mint and FX-then-mint are mutually exclusive")
	}

	// a non-linked fiat falls through to the FX leg; HKD also reaches
	// e-CNY over mBridge via e-HKD
	resp, err = r.Route(context.Background(), Request{Source: "HKD", Target: "e-CNY", Amount: 100_000})
	require.NoError(t, err)
	templates := map[string]bool{}
	for _, rt := range resp.AllRoutes {
		templates[rt.Template] = true
	}
	assert.False(t, templates["DIRECT_MINT"])
	assert.True(t, templates["FX_THEN_MINT"])
	assert.True(t, templates["MBRIDGE_ROUTE"])
}

func TestStablecoinSwapVenues(t *testing.T) {
	r := newTestRouter(t)
	resp, err := r.Route(context.Background(), Request{Source: "USDC", Target: "USDT", Amount: 1_000_000})
	require.NoError(t, err)
	assert.Equal(t, "CURVE", resp.BestRoute.Template)
	// both coins peg to USD so the mid is par less fees
	assert.InDelta(t, 1*(1-4.0/10000), resp.BestRoute.Rate, 1e-9)
}

func TestUnknownCurrencyRejected(t *testing.T) {
	r := newTestRouter(t)
	var verr *domain.ValidationError
	_, err := r.Route(context.Background(), Request{Source: "DOGE", Target: "USD", Amount: 1_000})
	assert.ErrorAs(t, err, &verr)
}

func TestRouteInvariants(t *testing.T) {
	r := newTestRouter(t)
	corridors := []Request{
		{Source: "USD", Target: "INR", Amount: 100_000},
		{Source: "CNY", Target: "e-CNY", Amount: 100_000},
		{Source: "e-CNY", Target: "CNY", Amount: 100_000},
		{Source: "e-CNY", Target: "e-AED", Amount: 100_000},
		{Source: "USD", Target: "USDC", Amount: 100_000},
		{Source: "USDC", Target: "USD", Amount: 100_000},
		{Source: "USDC", Target: "USDT", Amount: 100_000},
		{Source: "e-INR", Target: "USDC", Amount: 100_000},
		{Source: "USDC", Target: "e-HKD", Amount: 100_000},
	}
	for _, req := range corridors {
		resp, err := r.Route(context.Background(), req)
		require.NoError(t, err, "%s->%s", req.Source, req.Target)
		require.NotEmpty(t, resp.AllRoutes)
		for i, rt := range resp.AllRoutes {
			assert.GreaterOrEqual(t, rt.TotalCostBps, 0.0)
			assert.Greater(t, rt.SettlementSeconds, 0)
			assert.NotEmpty(t, rt.Legs)
			assert.NotEmpty(t, rt.RouteID)
			if i > 0 {
				prev := resp.AllRoutes[i-1]
				if prev.Score-rt.Score > scoreTieBand {
					assert.Greater(t, prev.Score, rt.Score)
				}
			}
		}
		assert.GreaterOrEqual(t, resp.BestRoute.Score, resp.AllRoutes[len(resp.AllRoutes)-1].Score)
	}
}

func TestOfframpFX(t *testing.T) {
	r := newTestRouter(t)
	// XSGD pegs to SGD; cashing out to USD needs the FX leg
	resp, err := r.Route(context.Background(), Request{Source: "XSGD", Target: "USD", Amount: 100_000})
	require.NoError(t, err)
	templates := map[string]bool{}
	for _, rt := range resp.AllRoutes {
		templates[rt.Template] = true
	}
	assert.False(t, templates["CIRCLE_OFFRAMP"])
	assert.True(t, templates["OFFRAMP_FX"])
	assert.True(t, templates["CEX_OFFRAMP"])
}
