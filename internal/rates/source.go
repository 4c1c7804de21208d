// Package rates supplies treasury mid/bid/ask for currency pairs. A
// Source produces rates; CachedSource adds a TTL cache, a circuit
// breaker and stale-rate fallback in front of it.
package rates

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fintaar/crossrail/internal/domain"
)

// Source supplies treasury rates. Fetch resolves a single pair,
// deriving inverses and USD cross-rates when the direct pair is not
// quoted. Snapshot returns all directly quoted pairs.
type Source interface {
	Fetch(ctx context.Context, pair string) (domain.TreasuryRate, error)
	Snapshot(ctx context.Context) ([]domain.TreasuryRate, error)
}

// StaticSource serves a fixed rate table. It stands in for the market
// feed: the engine is an advisory oracle and contracts no live feed.
type StaticSource struct {
	mu    sync.RWMutex
	table map[string]domain.TreasuryRate
	ttl   time.Duration
}

// NewStaticSource builds a source over the given rates, or the built-in
// fixture table when rates is empty.
func NewStaticSource(rates []domain.TreasuryRate) *StaticSource {
	if len(rates) == 0 {
		rates = fixtureRates()
	}
	table := make(map[string]domain.TreasuryRate, len(rates))
	for _, r := range rates {
		table[r.Pair] = r
	}
	return &StaticSource{table: table, ttl: 5 * time.Minute}
}

// Set replaces or adds a single pair. Used by tests and the demo feed.
func (s *StaticSource) Set(r domain.TreasuryRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[r.Pair] = r
}

// Fetch resolves pair directly, by inverse, or by crossing through USD.
func (s *StaticSource) Fetch(ctx context.Context, pair string) (domain.TreasuryRate, error) {
	if err := ctx.Err(); err != nil {
		return domain.TreasuryRate{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.lookup(pair); ok {
		return r, nil
	}
	if len(pair) == 6 {
		base, quote := pair[:3], pair[3:]
		if r, ok := crossViaUSD(s.lookup, base, quote); ok {
			r.ValidUntil = time.Now().Add(s.ttl)
			return r, nil
		}
	}
	return domain.TreasuryRate{}, &domain.RateUnavailableError{Pair: pair}
}

// lookup resolves a direct or inverse table hit. Callers hold the lock.
func (s *StaticSource) lookup(pair string) (domain.TreasuryRate, bool) {
	if r, ok := s.table[pair]; ok {
		r.ValidUntil = time.Now().Add(s.ttl)
		return r, true
	}
	if len(pair) == 6 {
		inv := pair[3:] + pair[:3]
		if r, ok := s.table[inv]; ok {
			out := r.Inverse(pair)
			out.ValidUntil = time.Now().Add(s.ttl)
			return out, true
		}
	}
	return domain.TreasuryRate{}, false
}

// Snapshot returns the directly quoted pairs sorted by pair.
func (s *StaticSource) Snapshot(ctx context.Context) ([]domain.TreasuryRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TreasuryRate, 0, len(s.table))
	validUntil := time.Now().Add(s.ttl)
	for _, r := range s.table {
		r.ValidUntil = validUntil
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pair < out[j].Pair })
	return out, nil
}

// crossViaUSD derives base/quote from baseUSD x USDquote mids and
// propagates the worst of the two relative spreads. Cross rates are
// derived on demand, never cached.
func crossViaUSD(lookup func(string) (domain.TreasuryRate, bool), base, quote string) (domain.TreasuryRate, bool) {
	if base == "USD" || quote == "USD" {
		return domain.TreasuryRate{}, false
	}
	left, ok := lookup(base + "USD")
	if !ok {
		return domain.TreasuryRate{}, false
	}
	right, ok := lookup("USD" + quote)
	if !ok {
		return domain.TreasuryRate{}, false
	}
	if left.Mid == 0 || right.Mid == 0 {
		return domain.TreasuryRate{}, false
	}

	mid := left.Mid * right.Mid
	half := relHalfSpread(left)
	if r := relHalfSpread(right); r > half {
		half = r
	}
	return domain.TreasuryRate{
		Pair:            base + quote,
		Bid:             mid * (1 - half),
		Mid:             mid,
		Ask:             mid * (1 + half),
		MinMarginBps:    maxF(left.MinMarginBps, right.MinMarginBps),
		TargetMarginBps: maxF(left.TargetMarginBps, right.TargetMarginBps),
		Position:        domain.PositionNeutral,
	}, true
}

func relHalfSpread(r domain.TreasuryRate) float64 {
	if r.Mid == 0 {
		return 0
	}
	return (r.Ask - r.Bid) / (2 * r.Mid)
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// fixtureRates is the demo treasury book.
func fixtureRates() []domain.TreasuryRate {
	return []domain.TreasuryRate{
		{Pair: "USDINR", Bid: 84.42, Mid: 84.50, Ask: 84.58, MinMarginBps: 5, TargetMarginBps: 15, MaxExposure: 10_000_000, CurrentExposure: 3_500_000, Position: domain.PositionLong},
		{Pair: "USDSGD", Bid: 1.3395, Mid: 1.3400, Ask: 1.3405, MinMarginBps: 3, TargetMarginBps: 10, MaxExposure: 20_000_000, CurrentExposure: 8_000_000, Position: domain.PositionNeutral},
		{Pair: "EURUSD", Bid: 1.0845, Mid: 1.0850, Ask: 1.0855, MinMarginBps: 2, TargetMarginBps: 8, MaxExposure: 50_000_000, CurrentExposure: 12_000_000, Position: domain.PositionShort},
		{Pair: "GBPUSD", Bid: 1.2645, Mid: 1.2650, Ask: 1.2655, MinMarginBps: 2, TargetMarginBps: 8, MaxExposure: 40_000_000, CurrentExposure: 9_000_000, Position: domain.PositionNeutral},
		{Pair: "USDJPY", Bid: 149.40, Mid: 149.50, Ask: 149.60, MinMarginBps: 2, TargetMarginBps: 8, MaxExposure: 60_000_000, CurrentExposure: 21_000_000, Position: domain.PositionNeutral},
		{Pair: "USDCNY", Bid: 7.2400, Mid: 7.2450, Ask: 7.2500, MinMarginBps: 5, TargetMarginBps: 18, MaxExposure: 15_000_000, CurrentExposure: 6_000_000, Position: domain.PositionNeutral},
		{Pair: "USDHKD", Bid: 7.7900, Mid: 7.8000, Ask: 7.8100, MinMarginBps: 3, TargetMarginBps: 10, MaxExposure: 25_000_000, CurrentExposure: 5_000_000, Position: domain.PositionNeutral},
		{Pair: "USDTHB", Bid: 34.40, Mid: 34.50, Ask: 34.60, MinMarginBps: 5, TargetMarginBps: 15, MaxExposure: 8_000_000, CurrentExposure: 2_000_000, Position: domain.PositionNeutral},
		{Pair: "USDAED", Bid: 3.6725, Mid: 3.6730, Ask: 3.6735, MinMarginBps: 3, TargetMarginBps: 10, MaxExposure: 12_000_000, CurrentExposure: 4_000_000, Position: domain.PositionNeutral},
		{Pair: "USDMYR", Bid: 4.4600, Mid: 4.4650, Ask: 4.4700, MinMarginBps: 5, TargetMarginBps: 15, MaxExposure: 6_000_000, CurrentExposure: 1_500_000, Position: domain.PositionNeutral},
		{Pair: "USDPHP", Bid: 58.20, Mid: 58.30, Ask: 58.40, MinMarginBps: 5, TargetMarginBps: 18, MaxExposure: 5_000_000, CurrentExposure: 1_000_000, Position: domain.PositionNeutral},
		{Pair: "USDIDR", Bid: 15_500, Mid: 15_525, Ask: 15_550, MinMarginBps: 8, TargetMarginBps: 20, MaxExposure: 4_000_000, CurrentExposure: 900_000, Position: domain.PositionNeutral},
	}
}
