package domain

// CustomerTier is a relationship band driving routing privileges and
// spread concessions.
type CustomerTier struct {
	ID                string    `json:"id" yaml:"id"`
	MinAnnualVolume   float64   `json:"min_annual_volume" yaml:"min_annual_volume"`
	MarkupDiscountPct float64   `json:"markup_discount_pct" yaml:"markup_discount_pct"`
	SpreadReductionBp float64   `json:"spread_reduction_bps" yaml:"spread_reduction_bps"`
	PriorityRouting   bool      `json:"priority_routing" yaml:"priority_routing"`
	MaxTransaction    float64   `json:"max_transaction" yaml:"max_transaction"`
	STPThreshold      float64   `json:"stp_threshold" yaml:"stp_threshold"`
	DefaultObjective  Objective `json:"default_objective" yaml:"default_objective"`
	ProvidersAllowed  []string  `json:"providers_allowed,omitempty" yaml:"providers_allowed"`
}

// PricingSegment is a customer-segment margin policy. Class selects the
// currency-category markup column (RETAIL, CORPORATE, INSTITUTIONAL).
type PricingSegment struct {
	ID                    string  `json:"id" yaml:"id"`
	Class                 string  `json:"class" yaml:"class"`
	BaseMarginBps         float64 `json:"base_margin_bps" yaml:"base_margin_bps"`
	MinMarginBps          float64 `json:"min_margin_bps" yaml:"min_margin_bps"`
	MaxMarginBps          float64 `json:"max_margin_bps" yaml:"max_margin_bps"`
	VolumeDiscountEligble bool    `json:"volume_discount_eligible" yaml:"volume_discount_eligible"`
	NegotiatedRatesAllowd bool    `json:"negotiated_rates_allowed" yaml:"negotiated_rates_allowed"`
}

// AmountTier is one half-open band [Min, Max) of the notional partition.
// Unbounded marks the top band.
type AmountTier struct {
	ID            string  `json:"id" yaml:"id"`
	MinAmount     float64 `json:"min_amount" yaml:"min_amount"`
	MaxAmount     float64 `json:"max_amount,omitempty" yaml:"max_amount"`
	Unbounded     bool    `json:"unbounded,omitempty" yaml:"unbounded"`
	AdjustmentBps float64 `json:"adjustment_bps" yaml:"adjustment_bps"`
	Description   string  `json:"description,omitempty" yaml:"description"`
}

// Contains reports whether amount falls in [Min, Max).
func (t AmountTier) Contains(amount float64) bool {
	if amount < t.MinAmount {
		return false
	}
	return t.Unbounded || amount < t.MaxAmount
}

// CurrencyCategoryID buckets currencies by liquidity and regulation.
type CurrencyCategoryID string

const (
	CategoryG10        CurrencyCategoryID = "G10"
	CategoryMinor      CurrencyCategoryID = "MINOR"
	CategoryExotic     CurrencyCategoryID = "EXOTIC"
	CategoryRestricted CurrencyCategoryID = "RESTRICTED"
)

// CurrencyCategory carries the per-segment markup factors for one bucket.
type CurrencyCategory struct {
	ID         CurrencyCategoryID `json:"id" yaml:"id"`
	Currencies []string           `json:"currencies" yaml:"currencies"`
	// MarkupBps is keyed by segment class: "RETAIL", "CORPORATE",
	// "INSTITUTIONAL".
	MarkupBps map[string]float64 `json:"markup_bps" yaml:"markup_bps"`
}

// Segment classes used to index CurrencyCategory.MarkupBps.
const (
	SegmentClassRetail        = "RETAIL"
	SegmentClassCorporate     = "CORPORATE"
	SegmentClassInstitutional = "INSTITUTIONAL"
)
