package deals

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/fintaar/crossrail/internal/domain"
)

// BestRateQuery asks for the better of an active deal and the live
// treasury rate. TreasuryRate is the effective (already adjusted)
// customer rate the router would otherwise offer.
type BestRateQuery struct {
	Pair         string
	Side         domain.Side
	Amount       float64
	TreasuryRate float64
}

// BestRateResult is the arbitration outcome.
type BestRateResult struct {
	Source     domain.RateSourceKind `json:"source"`
	DealID     string                `json:"deal_id,omitempty"`
	Rate       float64               `json:"rate"`
	SavingsBps float64               `json:"savings_bps"`
}

// BestRate selects the active, in-range deal with the best customer
// rate and compares it with the treasury rate. The deal wins only when
// strictly better for the customer.
func (s *Service) BestRate(ctx context.Context, q BestRateQuery) (BestRateResult, error) {
	if q.Amount <= 0 {
		return BestRateResult{}, domain.Validationf("amount", "must be positive")
	}
	if _, err := domain.ParseSide(string(q.Side)); err != nil {
		return BestRateResult{}, err
	}

	candidates, err := s.List(ctx, domain.DealActive, q.Pair)
	if err != nil {
		return BestRateResult{}, err
	}
	now := time.Now()
	eligible := candidates[:0]
	for _, d := range candidates {
		if d.Side != q.Side {
			continue
		}
		if d.RemainingAmount < q.Amount || q.Amount < d.MinAmount {
			continue
		}
		if !d.InWindow(now) {
			continue
		}
		eligible = append(eligible, d)
	}

	treasury := BestRateResult{Source: domain.RateFromTreasury, Rate: q.TreasuryRate}
	if len(eligible) == 0 {
		return treasury, nil
	}

	sort.Slice(eligible, func(i, j int) bool {
		ri, rj := eligible[i].Rate(q.Side), eligible[j].Rate(q.Side)
		if ri != rj {
			if q.Side == domain.SideSell {
				return ri > rj // customer sells: higher is better
			}
			return ri < rj // customer buys: lower is better
		}
		return eligible[i].ValidUntil.Before(eligible[j].ValidUntil)
	})

	top := eligible[0]
	rate := top.Rate(q.Side)
	better := rate > q.TreasuryRate
	if q.Side == domain.SideBuy {
		better = rate < q.TreasuryRate
	}
	if !better {
		return treasury, nil
	}
	savings := 0.0
	if q.TreasuryRate != 0 {
		savings = math.Abs(rate-q.TreasuryRate) / q.TreasuryRate * 10000
	}
	return BestRateResult{Source: domain.RateFromDeal, DealID: top.DealID, Rate: rate, SavingsBps: savings}, nil
}
