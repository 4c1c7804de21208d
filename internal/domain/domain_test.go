package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectiveWeightsSumToOne(t *testing.T) {
	for _, obj := range []Objective{ObjectiveBestRate, ObjectiveOptimum, ObjectiveFastestExecution, ObjectiveMaxSTP} {
		w := obj.Weights()
		sum := w.Rate + w.Reliability + w.Speed + w.STP
		assert.InDelta(t, 1.0, sum, 1e-9, "weights for %s should sum to 1", obj)
	}
}

func TestUnknownObjectiveFallsBackToOptimum(t *testing.T) {
	assert.Equal(t, ObjectiveOptimum.Weights(), Objective("BOGUS").Weights())
	assert.False(t, Objective("BOGUS").Valid())
}

func TestPositionBias(t *testing.T) {
	assert.Equal(t, -3.0, PositionLong.BiasBps(SideSell))
	assert.Equal(t, 3.0, PositionLong.BiasBps(SideBuy))
	assert.Equal(t, 3.0, PositionShort.BiasBps(SideSell))
	assert.Equal(t, -3.0, PositionShort.BiasBps(SideBuy))
	assert.Equal(t, 0.0, PositionNeutral.BiasBps(SideSell))
}

func TestAmountTierHalfOpen(t *testing.T) {
	tier := AmountTier{ID: "TIER_2", MinAmount: 10_000, MaxAmount: 50_000}
	assert.True(t, tier.Contains(10_000), "lower bound belongs to the tier")
	assert.True(t, tier.Contains(49_999.99))
	assert.False(t, tier.Contains(50_000), "upper bound belongs to the next tier")
}

func TestOperatingHoursMidnightWrap(t *testing.T) {
	h := OperatingHours{Open: "22:00", Close: "06:00"}
	at := func(hh, mm int) time.Time {
		return time.Date(2026, 3, 10, hh, mm, 0, 0, time.UTC)
	}
	assert.True(t, h.Contains(at(23, 30)))
	assert.True(t, h.Contains(at(2, 0)))
	assert.False(t, h.Contains(at(12, 0)))
	assert.True(t, OperatingHours{}.Contains(at(12, 0)), "zero value is always open")
}

func TestTreasuryRateInverse(t *testing.T) {
	r := TreasuryRate{Pair: "USDINR", Bid: 84.42, Mid: 84.50, Ask: 84.58, Position: PositionLong}
	inv := r.Inverse("INRUSD")
	assert.InDelta(t, 1/84.58, inv.Bid, 1e-9)
	assert.InDelta(t, 1/84.42, inv.Ask, 1e-9)
	assert.True(t, inv.Bid <= inv.Mid && inv.Mid <= inv.Ask)
	assert.Equal(t, PositionShort, inv.Position)
}

func TestDealWindowInclusive(t *testing.T) {
	until := time.Now().Add(time.Hour).Truncate(time.Second)
	d := Deal{ValidFrom: until.Add(-48 * time.Hour), ValidUntil: until}
	assert.True(t, d.InWindow(until), "deal is still usable at exactly valid_until")
	assert.False(t, d.InWindow(until.Add(time.Second)))
}

func TestExposureGating(t *testing.T) {
	r := TreasuryRate{MaxExposure: 1_000_000, CurrentExposure: 899_999}
	assert.True(t, r.CanExecuteInternally())
	r.CurrentExposure = 900_000
	assert.False(t, r.CanExecuteInternally())
}
