package domain

import "time"

// TreasuryPosition is the desk's inventory hint for a pair.
type TreasuryPosition string

const (
	PositionLong    TreasuryPosition = "LONG"
	PositionShort   TreasuryPosition = "SHORT"
	PositionNeutral TreasuryPosition = "NEUTRAL"
)

// PositionBiasBps is the magnitude of the inventory bias applied to the
// customer rate.
const PositionBiasBps = 3.0

// BiasBps returns the signed bias for the side. Positive worsens the
// customer rate.
func (p TreasuryPosition) BiasBps(side Side) float64 {
	switch p {
	case PositionLong:
		if side == SideSell {
			return -PositionBiasBps
		}
		return PositionBiasBps
	case PositionShort:
		if side == SideSell {
			return PositionBiasBps
		}
		return -PositionBiasBps
	}
	return 0
}

// TreasuryRate is one entry of the treasury rate snapshot.
// Invariant: Bid <= Mid <= Ask.
type TreasuryRate struct {
	Pair            string           `json:"pair"`
	Bid             float64          `json:"bid"`
	Ask             float64          `json:"ask"`
	Mid             float64          `json:"mid"`
	MinMarginBps    float64          `json:"min_margin_bps"`
	TargetMarginBps float64          `json:"target_margin_bps"`
	MaxExposure     float64          `json:"max_exposure"`
	CurrentExposure float64          `json:"current_exposure"`
	Position        TreasuryPosition `json:"position"`
	ValidUntil      time.Time        `json:"valid_until"`
}

// Base returns the raw customer-facing rate before adjustments: ask for
// SELL, bid for BUY.
func (r TreasuryRate) Base(side Side) float64 {
	if side == SideSell {
		return r.Ask
	}
	return r.Bid
}

// ExposureRatio is current over max exposure; 0 when max is unset.
func (r TreasuryRate) ExposureRatio() float64 {
	if r.MaxExposure <= 0 {
		return 0
	}
	return r.CurrentExposure / r.MaxExposure
}

// CanExecuteInternally reports whether the desk can warehouse more of
// the pair. The internal provider is shut off at 90% exposure.
func (r TreasuryRate) CanExecuteInternally() bool {
	return r.ExposureRatio() < 0.9
}

// Inverse flips the rate to the reciprocal pair. Bid and ask swap roles.
func (r TreasuryRate) Inverse(pair string) TreasuryRate {
	inv := r
	inv.Pair = pair
	if r.Ask != 0 {
		inv.Bid = 1 / r.Ask
	}
	if r.Bid != 0 {
		inv.Ask = 1 / r.Bid
	}
	if r.Mid != 0 {
		inv.Mid = 1 / r.Mid
	}
	if r.Position == PositionLong {
		inv.Position = PositionShort
	} else if r.Position == PositionShort {
		inv.Position = PositionLong
	}
	return inv
}

// RateType marks whether a figure is executable or informational.
type RateType string

const (
	RateFirm       RateType = "FIRM"
	RateIndicative RateType = "INDICATIVE"
)
