// Package pricing composes customer rates: mid-market plus a margin
// built from segment base, amount-tier adjustment, currency-category
// factor and negotiated discount, clamped to the segment bounds.
package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fintaar/crossrail/internal/domain"
	"github.com/fintaar/crossrail/internal/rates"
	"github.com/fintaar/crossrail/internal/refdata"
	"github.com/fintaar/crossrail/internal/rules"
)

// QuoteRequest is one pricing enquiry.
type QuoteRequest struct {
	Source     string      `json:"source_currency"`
	Target     string      `json:"target_currency"`
	Amount     float64     `json:"amount"`
	CustomerID string      `json:"customer_id"`
	Segment    string      `json:"segment"`
	Direction  domain.Side `json:"direction"`
}

// Engine issues firm quotes.
type Engine struct {
	registry *refdata.Registry
	source   *rates.CachedSource
	rules    *rules.Engine
	validity time.Duration
	loc      *time.Location
}

// NewEngine wires a pricing engine. validity bounds quote lifetime; loc
// is the zone temporal rule criteria evaluate in.
func NewEngine(registry *refdata.Registry, source *rates.CachedSource, ruleEngine *rules.Engine, validity time.Duration, loc *time.Location) *Engine {
	if validity <= 0 {
		validity = 60 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{registry: registry, source: source, rules: ruleEngine, validity: validity, loc: loc}
}

// Quote composes the customer rate for the request and issues a quote.
func (e *Engine) Quote(ctx context.Context, req QuoteRequest) (domain.Quote, error) {
	if req.Amount <= 0 {
		return domain.Quote{}, domain.Validationf("amount", "must be positive, got %v", req.Amount)
	}
	if req.Source == "" || req.Target == "" || req.Source == req.Target {
		return domain.Quote{}, domain.Validationf("currency", "source and target must be distinct, got %q/%q", req.Source, req.Target)
	}
	side, err := domain.ParseSide(string(req.Direction))
	if err != nil {
		return domain.Quote{}, err
	}

	snap := e.registry.Snapshot()
	segment, ok := snap.Segment(req.Segment)
	if !ok {
		return domain.Quote{}, domain.Validationf("segment", "unknown segment %q", req.Segment)
	}

	pair := domain.Pair(req.Source, req.Target)
	rate, rateType, err := e.source.Get(ctx, pair)
	if err != nil {
		return domain.Quote{}, err
	}
	mid := rate.Mid

	amountTier := snap.AmountTierFor(req.Amount)
	category := e.categoryFor(snap, segment, req.Source, req.Target)
	currencyBps := category.MarkupBps[segment.Class]

	discountBps := 0.0
	if segment.NegotiatedRatesAllowd {
		discountBps = snap.NegotiatedDiscount(req.CustomerID)
	}

	now := time.Now()
	decision := e.rules.MarginAdjustment(rules.Context{
		"customer_id":       req.CustomerID,
		"customer_segment":  segment.ID,
		"currency_pair":     pair,
		"currency_category": string(category.ID),
		"amount":            req.Amount,
		"amount_tier":       amountTier.ID,
		"direction":         string(side),
		"time_of_day":       now.In(e.loc).Format("15:04"),
		"day_of_week":       now.In(e.loc).Weekday().String(),
	}, now)

	baseBps := segment.BaseMarginBps
	if decision.BaseOverride != nil {
		baseBps = *decision.BaseOverride
	}
	tierBps := amountTier.AdjustmentBps * decision.TierMultiplier
	minBps, maxBps := segment.MinMarginBps, segment.MaxMarginBps
	if decision.MinOverride != nil {
		minBps = *decision.MinOverride
	}
	if decision.MaxOverride != nil {
		maxBps = *decision.MaxOverride
	}

	totalBps := baseBps + tierBps + currencyBps + decision.AdditionalBps - discountBps
	if totalBps < minBps {
		totalBps = minBps
	}
	if totalBps > maxBps {
		totalBps = maxBps
	}

	var customerRate, targetAmount float64
	if side == domain.SideSell {
		customerRate = mid * (1 - totalBps/10000)
		targetAmount = req.Amount * customerRate
	} else {
		customerRate = mid * (1 + totalBps/10000)
		targetAmount = req.Amount / customerRate
	}

	q := domain.Quote{
		QuoteID:      uuid.New().String(),
		Source:       req.Source,
		Target:       req.Target,
		Amount:       req.Amount,
		Direction:    side,
		MidRate:      mid,
		CustomerRate: customerRate,
		TargetAmount: targetAmount,
		MarginBps:    totalBps,
		MarginBreakdown: domain.MarginBreakdown{
			SegmentBase:        baseBps,
			TierAdjustment:     tierBps,
			CurrencyFactor:     currencyBps,
			NegotiatedDiscount: discountBps,
		},
		Segment:          segment.ID,
		AmountTier:       amountTier.ID,
		CurrencyCategory: string(category.ID),
		ValidUntil:       now.Add(e.validity),
		RateType:         rateType,
	}

	log.Debug().
		Str("quote", q.QuoteID).
		Str("pair", pair).
		Str("segment", segment.ID).
		Float64("margin_bps", totalBps).
		Float64("customer_rate", customerRate).
		Strs("rules", decision.AppliedRules).
		Msg("quote issued")
	return q, nil
}

// categoryFor picks the category of the costlier side of the pair: a
// restricted or exotic leg dominates the markup regardless of order.
func (e *Engine) categoryFor(snap *refdata.Snapshot, segment domain.PricingSegment, source, target string) domain.CurrencyCategory {
	catS := snap.CategoryOf(source)
	catT := snap.CategoryOf(target)
	if catS.MarkupBps[segment.Class] > catT.MarkupBps[segment.Class] {
		return catS
	}
	return catT
}
