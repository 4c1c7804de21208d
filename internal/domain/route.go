package domain

// LegMechanism names the settlement mechanism of one route leg.
type LegMechanism string

const (
	MechSwift      LegMechanism = "SWIFT"
	MechLocalRails LegMechanism = "LOCAL_RAILS"
	MechFintech    LegMechanism = "FINTECH"
	MechFXConvert  LegMechanism = "FX_CONVERSION"
	MechMint       LegMechanism = "MINT"
	MechRedeem     LegMechanism = "REDEEM"
	MechMBridge    LegMechanism = "MBRIDGE"
	MechNexus      LegMechanism = "NEXUS"
	MechOnRamp     LegMechanism = "ON_RAMP"
	MechOffRamp    LegMechanism = "OFF_RAMP"
	MechDEXSwap    LegMechanism = "DEX_SWAP"
	MechCEXTrade   LegMechanism = "CEX_TRADE"
	MechOTC        LegMechanism = "OTC"
	MechAtomicSwap LegMechanism = "ATOMIC_SWAP"
)

// RouteLeg is one hop of a route.
type RouteLeg struct {
	From              string       `json:"from"`
	To                string       `json:"to"`
	Mechanism         LegMechanism `json:"mechanism"`
	Ref               string       `json:"ref,omitempty"` // provider, ramp, venue or corridor id
	FeeBps            float64      `json:"fee_bps"`
	SettlementSeconds int          `json:"settlement_seconds"`
	Reliability       float64      `json:"reliability"`
	STPCapable        bool         `json:"stp_capable"`
}

// RouteAnnotations carry advisory flags on a route.
type RouteAnnotations struct {
	STPEligible  bool `json:"stp_eligible,omitempty"`
	MBridge      bool `json:"mbridge,omitempty"`
	Experimental bool `json:"experimental,omitempty"`
}

// Route is a concrete, scored conversion path across one or more legs.
type Route struct {
	RouteID           string           `json:"route_id"`
	Template          string           `json:"template"`
	Rail              RailType         `json:"rail"`
	Legs              []RouteLeg       `json:"legs"`
	Rate              float64          `json:"rate"`
	EffectiveAmount   float64          `json:"effective_amount"`
	FeeBps            float64          `json:"fee_bps"`
	TotalCostBps      float64          `json:"total_cost_bps"`
	SettlementSeconds int              `json:"settlement_seconds"`
	Regulated         bool             `json:"regulated"`
	Score             float64          `json:"score"`
	Annotations       RouteAnnotations `json:"annotations"`
}
