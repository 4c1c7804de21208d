// Package multirail routes conversions across fiat, CBDC and stablecoin
// rails. The route catalogue is data; materialisation substitutes
// registry entries, and every materialised route is scored under the
// same four-component objective as the fiat router.
package multirail

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fintaar/crossrail/internal/domain"
	"github.com/fintaar/crossrail/internal/rates"
	"github.com/fintaar/crossrail/internal/refdata"
)

// scoreTieBand is the window inside which regulation and leg count
// break ties instead of raw score.
const scoreTieBand = 0.005

// Request is one cross-rail routing enquiry.
type Request struct {
	Source          string           `json:"source_currency"`
	Target          string           `json:"target_currency"`
	Amount          float64          `json:"amount"`
	Objective       domain.Objective `json:"objective,omitempty"`
	FilterRegulated bool             `json:"filter_regulated,omitempty"`
}

// Response carries the scored routes, best first, plus the best route
// per rail when one exists.
type Response struct {
	Pair            string           `json:"pair"`
	SourceRail      domain.RailType  `json:"source_rail"`
	TargetRail      domain.RailType  `json:"target_rail"`
	Objective       domain.Objective `json:"objective"`
	BestRoute       *domain.Route    `json:"best_route"`
	FiatRoute       *domain.Route    `json:"fiat_route,omitempty"`
	CBDCRoute       *domain.Route    `json:"cbdc_route,omitempty"`
	StablecoinRoute *domain.Route    `json:"stablecoin_route,omitempty"`
	AllRoutes       []domain.Route   `json:"all_routes"`
	Warnings        []string         `json:"warnings,omitempty"`
}

// Router materialises and ranks cross-rail routes.
type Router struct {
	registry *refdata.Registry
	source   *rates.CachedSource
}

// NewRouter wires the cross-rail router.
func NewRouter(registry *refdata.Registry, source *rates.CachedSource) *Router {
	return &Router{registry: registry, source: source}
}

// Route classifies the corridor, materialises every applicable template
// and returns the scored routes.
func (r *Router) Route(ctx context.Context, req Request) (Response, error) {
	if req.Amount <= 0 {
		return Response{}, domain.Validationf("amount", "must be positive, got %v", req.Amount)
	}
	if req.Source == "" || req.Target == "" || req.Source == req.Target {
		return Response{}, domain.Validationf("currency", "source and target must be distinct")
	}

	snap := r.registry.Snapshot()
	srcRail, ok := snap.RailOf(req.Source)
	if !ok {
		return Response{}, domain.Validationf("source_currency", "%s is not a registered currency", req.Source)
	}
	tgtRail, ok := snap.RailOf(req.Target)
	if !ok {
		return Response{}, domain.Validationf("target_currency", "%s is not a registered currency", req.Target)
	}
	objective := req.Objective
	if !objective.Valid() {
		objective = domain.ObjectiveOptimum
	}

	mid, err := r.crossRailMid(ctx, snap, req.Source, req.Target)
	if err != nil {
		return Response{}, err
	}

	templates := catalogue[railClass{From: srcRail, To: tgtRail}]
	routes := make([]*domain.Route, len(templates))
	exclusions := map[string]string{}
	var exclusionsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, tpl := range templates {
		i, tpl := i, tpl
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			legs, ann, ok, err := materialise(tpl, req.Source, req.Target, snap)
			if !ok {
				var inap *domain.TemplateInapplicableError
				if errors.As(err, &inap) {
					exclusionsMu.Lock()
					exclusions[tpl.Name] = inap.Reason
					exclusionsMu.Unlock()
					return nil
				}
				return err
			}
			route := assemble(tpl, legs, ann, mid, req.Amount)
			route.Score = scoreRoute(route, objective)
			routes[i] = &route
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	all := make([]domain.Route, 0, len(routes))
	filtered := 0
	for _, rt := range routes {
		if rt == nil {
			continue
		}
		if req.FilterRegulated && !rt.Regulated {
			filtered++
			continue
		}
		all = append(all, *rt)
	}
	if len(all) == 0 {
		return Response{}, &domain.NoEligibleProviderError{
			Pair: domain.Pair(req.Source, req.Target), Exclusions: exclusions,
		}
	}
	sortRoutes(all)

	resp := Response{
		Pair:       domain.Pair(req.Source, req.Target),
		SourceRail: srcRail,
		TargetRail: tgtRail,
		Objective:  objective,
		BestRoute:  &all[0],
		AllRoutes:  all,
	}
	for i := range all {
		rt := &all[i]
		switch rt.Rail {
		case domain.RailFiat:
			if resp.FiatRoute == nil {
				resp.FiatRoute = rt
			}
		case domain.RailCBDC:
			if resp.CBDCRoute == nil {
				resp.CBDCRoute = rt
			}
		case domain.RailStablecoin:
			if resp.StablecoinRoute == nil {
				resp.StablecoinRoute = rt
			}
		}
	}
	resp.Warnings = r.warnings(all, filtered)

	log.Debug().
		Str("pair", resp.Pair).
		Str("template", resp.BestRoute.Template).
		Float64("score", resp.BestRoute.Score).
		Int("routes", len(all)).
		Msg("multi-rail recommendation")
	return resp, nil
}

// crossRailMid anchors each leg currency to its fiat and prices the
// fiat cross. Identical anchors skip the rate fetch entirely.
func (r *Router) crossRailMid(ctx context.Context, snap *refdata.Snapshot, source, target string) (float64, error) {
	srcFiat, srcRatio := anchor(snap, source)
	tgtFiat, tgtRatio := anchor(snap, target)
	cross := 1.0
	if srcFiat != tgtFiat {
		rate, _, err := r.source.Get(ctx, domain.Pair(srcFiat, tgtFiat))
		if err != nil {
			return 0, err
		}
		cross = rate.Mid
	}
	return srcRatio * cross / tgtRatio, nil
}

// anchor maps a currency to its fiat anchor and the fiat value of one
// unit. Fiats anchor to themselves at par.
func anchor(snap *refdata.Snapshot, code string) (string, float64) {
	if c, ok := snap.CBDCs[code]; ok {
		return c.LinkedFiat, 1
	}
	if c, ok := snap.Stablecoins[code]; ok {
		ratio := c.PegRatio
		if ratio <= 0 {
			ratio = 1
		}
		return c.PegCurrency, ratio
	}
	return code, 1
}

// assemble folds leg costs into a concrete route.
func assemble(tpl Template, legs []domain.RouteLeg, ann domain.RouteAnnotations, mid, amount float64) domain.Route {
	var feeBps float64
	settlement := 0
	stp := true
	for _, l := range legs {
		feeBps += l.FeeBps
		if l.SettlementSeconds > settlement {
			settlement = l.SettlementSeconds
		}
		stp = stp && l.STPCapable
	}
	ann.STPEligible = stp
	rate := mid * (1 - feeBps/10000)
	return domain.Route{
		RouteID:           uuid.NewString(),
		Template:          tpl.Name,
		Rail:              tpl.Rail,
		Legs:              legs,
		Rate:              rate,
		EffectiveAmount:   amount * rate,
		FeeBps:            feeBps,
		TotalCostBps:      feeBps,
		SettlementSeconds: settlement,
		Regulated:         tpl.Regulated,
		Annotations:       ann,
	}
}

// scoreRoute applies the objective weights to the route sub-scores.
func scoreRoute(rt domain.Route, objective domain.Objective) float64 {
	cost := 1 - math.Min(1, rt.TotalCostBps/100)
	reliability := 1.0
	for _, l := range rt.Legs {
		reliability *= l.Reliability
	}
	speed := 1 - math.Min(1, float64(rt.SettlementSeconds)/86400)
	stp := 0.3
	if rt.Annotations.STPEligible {
		stp = 1
	}
	return objective.Weights().Score(cost, reliability, speed, stp)
}

// sortRoutes orders by score descending. Inside the tie band the
// regulated route wins, then the one with fewer legs, then the name.
func sortRoutes(routes []domain.Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if math.Abs(a.Score-b.Score) > scoreTieBand {
			return a.Score > b.Score
		}
		if a.Regulated != b.Regulated {
			return a.Regulated
		}
		if len(a.Legs) != len(b.Legs) {
			return len(a.Legs) < len(b.Legs)
		}
		return a.Template < b.Template
	})
}

func (r *Router) warnings(routes []domain.Route, filtered int) []string {
	var out []string
	if filtered > 0 {
		out = append(out, fmt.Sprintf("%d non-regulated route(s) suppressed", filtered))
	}
	for _, rt := range routes {
		if rt.Annotations.Experimental {
			out = append(out, fmt.Sprintf("route %s uses an experimental corridor", rt.Template))
		}
	}
	if routes[0].SettlementSeconds > 86400 {
		out = append(out, fmt.Sprintf("best route settles in more than 24h via %s", routes[0].Template))
	}
	return out
}
