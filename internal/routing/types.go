// Package routing scores and ranks fiat providers for a currency pair
// under a weighted objective, folding in treasury position, customer
// tier concessions and rule-injected preferences.
package routing

import (
	"time"

	"github.com/fintaar/crossrail/internal/domain"
)

// Request is one fiat routing enquiry. Timestamp anchors operating-hour
// and rule checks; zero means now.
type Request struct {
	Source     string           `json:"source_currency"`
	Target     string           `json:"target_currency"`
	Amount     float64          `json:"amount"`
	Side       domain.Side      `json:"side"`
	Tier       string           `json:"customer_tier"`
	Segment    string           `json:"customer_segment,omitempty"`
	Objective  domain.Objective `json:"objective,omitempty"`
	CustomerID string           `json:"customer_id,omitempty"`
	Timestamp  time.Time        `json:"timestamp,omitempty"`
}

// SubScores are the four normalised component scores.
type SubScores struct {
	Rate        float64 `json:"rate"`
	Reliability float64 `json:"reliability"`
	Speed       float64 `json:"speed"`
	STP         float64 `json:"stp"`
}

// ProviderQuote is one scored provider.
type ProviderQuote struct {
	ProviderID        string              `json:"provider_id"`
	ProviderName      string              `json:"provider_name"`
	ProviderType      domain.ProviderType `json:"provider_type"`
	EffectiveRate     float64             `json:"effective_rate"`
	AdjustedMarkupBps float64             `json:"adjusted_markup_bps"`
	SettlementHours   float64             `json:"settlement_hours"`
	SubScores         SubScores           `json:"sub_scores"`
	RuleBonus         float64             `json:"rule_bonus,omitempty"`
	Score             float64             `json:"score"`
	STPEnabled        bool                `json:"stp_enabled"`
}

// STPVerdict reports whether the head recommendation settles
// straight-through for this customer.
type STPVerdict struct {
	Eligible         bool   `json:"stp_eligible"`
	RequiresApproval bool   `json:"requires_approval"`
	Reason           string `json:"approval_reason,omitempty"`
}

// TriangulationAdvisory compares the direct rate with the best
// bridge-currency product.
type TriangulationAdvisory struct {
	DirectMid   float64 `json:"direct_mid"`
	Bridge      string  `json:"bridge_currency"`
	BridgeMid   float64 `json:"bridge_mid"`
	SavingsBps  float64 `json:"savings_bps"`
	Recommended bool    `json:"recommended"`
}

// Recommendation is the ranked answer for a fiat enquiry.
type Recommendation struct {
	Pair          string                 `json:"pair"`
	Side          domain.Side            `json:"side"`
	Amount        float64                `json:"amount"`
	Objective     domain.Objective       `json:"objective"`
	RateType      domain.RateType        `json:"rate_type"`
	Providers     []ProviderQuote        `json:"providers"`
	STP           STPVerdict             `json:"stp"`
	Triangulation *TriangulationAdvisory `json:"triangulation,omitempty"`
	Warnings      []string               `json:"warnings,omitempty"`
	AppliedRules  []string               `json:"applied_rules,omitempty"`
}
