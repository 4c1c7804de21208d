package routing

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fintaar/crossrail/internal/domain"
	"github.com/fintaar/crossrail/internal/rates"
	"github.com/fintaar/crossrail/internal/refdata"
	"github.com/fintaar/crossrail/internal/rules"
)

// Options tune advisory thresholds.
type Options struct {
	TriangulationMinSavingsBps float64
	ExposureWarnRatio          float64
	Location                   *time.Location
}

func (o *Options) fill() {
	if o.TriangulationMinSavingsBps <= 0 {
		o.TriangulationMinSavingsBps = 10
	}
	if o.ExposureWarnRatio <= 0 {
		o.ExposureWarnRatio = 0.7
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
}

// Engine is the smart fiat router.
type Engine struct {
	registry *refdata.Registry
	source   *rates.CachedSource
	rules    *rules.Engine
	opts     Options
}

// NewEngine wires the router.
func NewEngine(registry *refdata.Registry, source *rates.CachedSource, ruleEngine *rules.Engine, opts Options) *Engine {
	opts.fill()
	return &Engine{registry: registry, source: source, rules: ruleEngine, opts: opts}
}

// Recommend ranks the eligible providers for the request.
func (e *Engine) Recommend(ctx context.Context, req Request) (Recommendation, error) {
	if req.Amount <= 0 {
		return Recommendation{}, domain.Validationf("amount", "must be positive, got %v", req.Amount)
	}
	if req.Source == "" || req.Target == "" || req.Source == req.Target {
		return Recommendation{}, domain.Validationf("currency", "source and target must be distinct")
	}
	side, err := domain.ParseSide(string(req.Side))
	if err != nil {
		return Recommendation{}, err
	}
	now := req.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	snap := e.registry.Snapshot()
	tier := snap.Tier(req.Tier)
	if tier.MaxTransaction > 0 && req.Amount > tier.MaxTransaction {
		return Recommendation{}, domain.Validationf("amount", "%.2f exceeds tier %s maximum %.2f", req.Amount, tier.ID, tier.MaxTransaction)
	}
	objective := req.Objective
	if !objective.Valid() {
		objective = tier.DefaultObjective
	}

	pair := domain.Pair(req.Source, req.Target)
	rate, rateType, err := e.source.Get(ctx, pair)
	if err != nil {
		return Recommendation{}, err
	}

	decision := e.rules.ProviderSelection(rules.Context{
		"customer_id":       req.CustomerID,
		"customer_tier":     tier.ID,
		"customer_segment":  req.Segment,
		"currency_pair":     pair,
		"amount":            req.Amount,
		"amount_tier":       snap.AmountTierFor(req.Amount).ID,
		"routing_objective": string(objective),
		"direction":         string(side),
		"time_of_day":       now.In(e.opts.Location).Format("15:04"),
		"day_of_week":       now.In(e.opts.Location).Weekday().String(),
	}, now)
	if decision.ObjectiveOverride.Valid() {
		objective = decision.ObjectiveOverride
	}

	eligible, exclusions := e.filterEligible(snap, tier, decision, pair, req.Amount, now, rate)
	if decision.ForceProvider != "" {
		for _, p := range eligible {
			if p.ID == decision.ForceProvider {
				eligible = []domain.Provider{p}
				break
			}
		}
	}
	if len(eligible) == 0 {
		return Recommendation{}, &domain.NoEligibleProviderError{Pair: pair, Exclusions: exclusions}
	}

	if tier.PriorityRouting {
		sort.SliceStable(eligible, func(i, j int) bool {
			pi, pj := eligible[i], eligible[j]
			ii, ij := pi.Type == domain.ProviderInternal, pj.Type == domain.ProviderInternal
			if ii != ij {
				return ii
			}
			return pi.Reliability > pj.Reliability
		})
	}

	weights := objective.Weights()
	quotes := make([]ProviderQuote, 0, len(eligible))
	for _, p := range eligible {
		q, ok := e.score(p, tier, side, rate, weights, decision.PreferredCount[p.ID])
		if !ok {
			log.Warn().Str("provider", p.ID).Str("pair", pair).Msg("provider score NaN, dropped from ranking")
			continue
		}
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 {
		return Recommendation{}, &domain.NoEligibleProviderError{Pair: pair, Exclusions: exclusions}
	}
	sortQuotes(quotes)

	head := quotes[0]
	rec := Recommendation{
		Pair:         pair,
		Side:         side,
		Amount:       req.Amount,
		Objective:    objective,
		RateType:     rateType,
		Providers:    quotes,
		STP:          e.stpVerdict(head, tier, req.Amount),
		Warnings:     e.warnings(quotes, rate),
		AppliedRules: decision.AppliedRules,
	}
	if tri := e.triangulate(ctx, req.Source, req.Target, rate.Mid); tri != nil {
		rec.Triangulation = tri
	}

	log.Debug().
		Str("pair", pair).
		Str("objective", string(objective)).
		Str("head", head.ProviderID).
		Float64("score", head.Score).
		Msg("routing recommendation")
	return rec, nil
}

// filterEligible applies the eligibility filter and records a
// diagnostic reason for every exclusion.
func (e *Engine) filterEligible(snap *refdata.Snapshot, tier domain.CustomerTier, decision rules.ProviderDecision, pair string, amount float64, now time.Time, rate domain.TreasuryRate) ([]domain.Provider, map[string]string) {
	allowed := map[string]bool{}
	for _, id := range tier.ProvidersAllowed {
		allowed[id] = true
	}

	var eligible []domain.Provider
	exclusions := map[string]string{}
	for _, p := range snap.ProviderList() {
		switch {
		case !p.IsActive:
			exclusions[p.ID] = "inactive"
		case p.Type == domain.ProviderMarketData:
			exclusions[p.ID] = "market data only"
		case !p.SupportsPair(pair):
			exclusions[p.ID] = "pair not supported"
		case !p.OperatingHours.Contains(now.In(e.opts.Location)):
			exclusions[p.ID] = "outside operating hours"
		case amount < p.MinAmount:
			exclusions[p.ID] = fmt.Sprintf("amount below provider minimum %.0f", p.MinAmount)
		case p.DailyLimit > 0 && amount > p.DailyLimit:
			exclusions[p.ID] = fmt.Sprintf("amount above daily limit %.0f", p.DailyLimit)
		case len(allowed) > 0 && !allowed[p.ID]:
			exclusions[p.ID] = "not in tier provider list"
		case decision.Excluded[p.ID]:
			exclusions[p.ID] = "excluded by rule"
		case p.Type == domain.ProviderInternal && !rate.CanExecuteInternally():
			exclusions[p.ID] = "treasury exposure limit reached"
		default:
			eligible = append(eligible, p)
			continue
		}
	}
	return eligible, exclusions
}

// score computes the effective rate and composite score for one
// provider. ok is false when the score is NaN.
func (e *Engine) score(p domain.Provider, tier domain.CustomerTier, side domain.Side, rate domain.TreasuryRate, weights domain.Weights, preferredListings int) (ProviderQuote, bool) {
	base := rate.Base(side)
	bias := rate.Position.BiasBps(side)
	adjMarkup := p.MarkupBps * (1 - tier.MarkupDiscountPct/100)
	totalBps := bias + adjMarkup - tier.SpreadReductionBp

	var effective float64
	if side == domain.SideSell {
		effective = base * (1 - totalBps/10000)
	} else {
		effective = base * (1 + totalBps/10000)
	}

	sub := SubScores{
		Rate:        1 - math.Min(1, adjMarkup/100),
		Reliability: p.Reliability,
		Speed:       1 - math.Min(1, p.AvgLatencyMs/500),
		STP:         0.3,
	}
	if p.STPEnabled {
		sub.STP = 1
	}
	bonus := 0.05 * float64(preferredListings)
	score := weights.Score(sub.Rate, sub.Reliability, sub.Speed, sub.STP) + bonus
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return ProviderQuote{}, false
	}
	return ProviderQuote{
		ProviderID:        p.ID,
		ProviderName:      p.Name,
		ProviderType:      p.Type,
		EffectiveRate:     effective,
		AdjustedMarkupBps: adjMarkup,
		SettlementHours:   p.SettlementHrs,
		SubScores:         sub,
		RuleBonus:         bonus,
		Score:             score,
		STPEnabled:        p.STPEnabled,
	}, true
}

// sortQuotes orders by score descending with the deterministic
// tie-break chain: reliability desc, markup asc, latency asc, id asc.
func sortQuotes(quotes []ProviderQuote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		a, b := quotes[i], quotes[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.SubScores.Reliability != b.SubScores.Reliability {
			return a.SubScores.Reliability > b.SubScores.Reliability
		}
		if a.AdjustedMarkupBps != b.AdjustedMarkupBps {
			return a.AdjustedMarkupBps < b.AdjustedMarkupBps
		}
		if a.SubScores.Speed != b.SubScores.Speed {
			return a.SubScores.Speed > b.SubScores.Speed
		}
		return a.ProviderID < b.ProviderID
	})
}

func (e *Engine) stpVerdict(head ProviderQuote, tier domain.CustomerTier, amount float64) STPVerdict {
	if !head.STPEnabled {
		return STPVerdict{RequiresApproval: true, Reason: fmt.Sprintf("provider %s requires manual settlement", head.ProviderID)}
	}
	if tier.STPThreshold > 0 && amount > tier.STPThreshold {
		return STPVerdict{RequiresApproval: true, Reason: fmt.Sprintf("amount %.2f above tier STP threshold %.2f", amount, tier.STPThreshold)}
	}
	return STPVerdict{Eligible: true}
}

func (e *Engine) warnings(quotes []ProviderQuote, rate domain.TreasuryRate) []string {
	var out []string
	if ratio := rate.ExposureRatio(); ratio > e.opts.ExposureWarnRatio {
		out = append(out, fmt.Sprintf("treasury exposure at %.0f%% of limit for %s", ratio*100, rate.Pair))
	}
	if len(quotes) < 2 {
		out = append(out, "single eligible provider, no fallback available")
	}
	if quotes[0].SettlementHours > 24 {
		out = append(out, fmt.Sprintf("settlement exceeds 24h via %s", quotes[0].ProviderID))
	}
	return out
}

// triangulationBridges are tried in order; USD is already the cross
// pivot so it is not a bridge here.
var triangulationBridges = []string{"EUR", "GBP", "SGD"}

// triangulate compares the direct mid with bridge-currency products and
// reports the best one. The extra leg costs both half-spreads, which is
// priced into the savings.
func (e *Engine) triangulate(ctx context.Context, source, target string, directMid float64) *TriangulationAdvisory {
	if directMid == 0 {
		return nil
	}
	best := (*TriangulationAdvisory)(nil)
	for _, bridge := range triangulationBridges {
		if bridge == source || bridge == target {
			continue
		}
		first, _, err := e.source.Get(ctx, domain.Pair(source, bridge))
		if err != nil {
			continue
		}
		second, _, err := e.source.Get(ctx, domain.Pair(bridge, target))
		if err != nil {
			continue
		}
		// bridge product net of the extra legs' half-spreads
		cost := relHalfSpread(first) + relHalfSpread(second)
		bridgeMid := first.Mid * second.Mid * (1 - cost)
		savings := (bridgeMid - directMid) / directMid * 10000
		if best == nil || savings > best.SavingsBps {
			best = &TriangulationAdvisory{
				DirectMid:   directMid,
				Bridge:      bridge,
				BridgeMid:   bridgeMid,
				SavingsBps:  savings,
				Recommended: savings >= e.opts.TriangulationMinSavingsBps,
			}
		}
	}
	return best
}

func relHalfSpread(r domain.TreasuryRate) float64 {
	if r.Mid == 0 {
		return 0
	}
	return (r.Ask - r.Bid) / (2 * r.Mid)
}
