// Package domain holds the core types of the cross-rail FX engine:
// rails, providers, rates, deals, quotes, routes and the error taxonomy.
package domain

import "fmt"

// RailType classifies a currency's settlement infrastructure.
type RailType string

const (
	RailFiat       RailType = "FIAT"
	RailCBDC       RailType = "CBDC"
	RailStablecoin RailType = "STABLECOIN"
)

// Side is the customer-facing direction of a conversion.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide validates a direction string.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s), nil
	}
	return "", &ValidationError{Field: "side", Message: fmt.Sprintf("unknown side %q", s)}
}

// Objective names a weight vector over (rate, reliability, speed, stp).
type Objective string

const (
	ObjectiveBestRate         Objective = "BEST_RATE"
	ObjectiveOptimum          Objective = "OPTIMUM"
	ObjectiveFastestExecution Objective = "FASTEST_EXECUTION"
	ObjectiveMaxSTP           Objective = "MAX_STP"
)

// Weights is an objective's weight vector. Components sum to 1.
type Weights struct {
	Rate        float64
	Reliability float64
	Speed       float64
	STP         float64
}

var objectiveWeights = map[Objective]Weights{
	ObjectiveBestRate:         {Rate: 0.70, Reliability: 0.15, Speed: 0.10, STP: 0.05},
	ObjectiveOptimum:          {Rate: 0.40, Reliability: 0.25, Speed: 0.20, STP: 0.15},
	ObjectiveFastestExecution: {Rate: 0.20, Reliability: 0.25, Speed: 0.45, STP: 0.10},
	ObjectiveMaxSTP:           {Rate: 0.25, Reliability: 0.20, Speed: 0.15, STP: 0.40},
}

// Weights returns the objective's weight vector, defaulting to OPTIMUM
// for an unknown objective.
func (o Objective) Weights() Weights {
	if w, ok := objectiveWeights[o]; ok {
		return w
	}
	return objectiveWeights[ObjectiveOptimum]
}

// Valid reports whether the objective is one of the four known vectors.
func (o Objective) Valid() bool {
	_, ok := objectiveWeights[o]
	return ok
}

// Score computes the composite score for the given sub-scores.
func (w Weights) Score(rate, reliability, speed, stp float64) float64 {
	return w.Rate*rate + w.Reliability*reliability + w.Speed*speed + w.STP*stp
}

// Pair concatenates two currency codes into a rate-table key ("USDINR").
func Pair(base, quote string) string {
	return base + quote
}
