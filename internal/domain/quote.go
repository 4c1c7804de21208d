package domain

import "time"

// MarginBreakdown decomposes a quote's margin into its components, all
// in bps. NegotiatedDiscount is stored as the amount subtracted.
type MarginBreakdown struct {
	SegmentBase        float64 `json:"segment_base"`
	TierAdjustment     float64 `json:"tier_adjustment"`
	CurrencyFactor     float64 `json:"currency_factor"`
	NegotiatedDiscount float64 `json:"negotiated_discount"`
}

// Quote is a firm (or indicative) customer rate. Immutable once issued.
type Quote struct {
	QuoteID          string          `json:"quote_id"`
	Source           string          `json:"source_currency"`
	Target           string          `json:"target_currency"`
	Amount           float64         `json:"amount"`
	Direction        Side            `json:"direction"`
	MidRate          float64         `json:"mid_rate"`
	CustomerRate     float64         `json:"customer_rate"`
	TargetAmount     float64         `json:"target_amount"`
	MarginBps        float64         `json:"margin_bps"`
	MarginBreakdown  MarginBreakdown `json:"margin_breakdown"`
	Segment          string          `json:"segment"`
	AmountTier       string          `json:"amount_tier"`
	CurrencyCategory string          `json:"currency_category"`
	ValidUntil       time.Time       `json:"valid_until"`
	RateType         RateType        `json:"rate_type"`
}
