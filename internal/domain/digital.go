package domain

// CBDCStatus is the lifecycle stage of a central-bank digital currency.
type CBDCStatus string

const (
	CBDCLive  CBDCStatus = "LIVE"
	CBDCPilot CBDCStatus = "PILOT"
)

// CBDCFees are issuance-side costs in bps.
type CBDCFees struct {
	IssuanceBps   float64 `json:"issuance" yaml:"issuance"`
	RedemptionBps float64 `json:"redemption" yaml:"redemption"`
	TransferBps   float64 `json:"transfer" yaml:"transfer"`
}

// CBDC is a registry entry for one central-bank digital currency.
type CBDC struct {
	Code               string     `json:"code" yaml:"code"`
	Issuer             string     `json:"issuer" yaml:"issuer"`
	LinkedFiat         string     `json:"linked_fiat" yaml:"linked_fiat"`
	Status             CBDCStatus `json:"status" yaml:"status"`
	SettlementSeconds  int        `json:"settlement_seconds" yaml:"settlement_seconds"`
	MBridgeParticipant bool       `json:"mbridge_participant" yaml:"mbridge_participant"`
	CrossBorderEnabled bool       `json:"cross_border_enabled" yaml:"cross_border_enabled"`
	Fees               CBDCFees   `json:"fees" yaml:"fees"`
}

// StablecoinNetwork is one chain a stablecoin settles on.
type StablecoinNetwork struct {
	Chain             string  `json:"chain" yaml:"chain"`
	SettlementSeconds int     `json:"settlement_seconds" yaml:"settlement_seconds"`
	FeeUSD            float64 `json:"fee_usd" yaml:"fee_usd"`
}

// StablecoinFees are mint/redeem/transfer costs in bps.
type StablecoinFees struct {
	MintBps     float64 `json:"mint" yaml:"mint"`
	RedeemBps   float64 `json:"redeem" yaml:"redeem"`
	TransferBps float64 `json:"transfer" yaml:"transfer"`
}

// Stablecoin is a registry entry for one fiat-pegged token.
type Stablecoin struct {
	Code           string              `json:"code" yaml:"code"`
	Issuer         string              `json:"issuer" yaml:"issuer"`
	PegCurrency    string              `json:"peg_currency" yaml:"peg_currency"`
	PegRatio       float64             `json:"peg_ratio" yaml:"peg_ratio"`
	Regulated      bool                `json:"regulated" yaml:"regulated"`
	Networks       []StablecoinNetwork `json:"networks" yaml:"networks"`
	LiquidityScore float64             `json:"liquidity_score" yaml:"liquidity_score"`
	Fees           StablecoinFees      `json:"fees" yaml:"fees"`
}

// FastestNetwork returns the network with the lowest settlement time,
// or a zero value when none are registered.
func (s *Stablecoin) FastestNetwork() StablecoinNetwork {
	var best StablecoinNetwork
	for i, n := range s.Networks {
		if i == 0 || n.SettlementSeconds < best.SettlementSeconds {
			best = n
		}
	}
	return best
}

// RampDirection distinguishes fiat→token from token→fiat ramps.
type RampDirection string

const (
	RampOn  RampDirection = "ON"
	RampOff RampDirection = "OFF"
	RampBi  RampDirection = "BIDIRECTIONAL"
)

// Ramp is an on-/off-ramp venue between fiat and stablecoins.
type Ramp struct {
	ID                string        `json:"id" yaml:"id"`
	Name              string        `json:"name" yaml:"name"`
	Direction         RampDirection `json:"direction" yaml:"direction"`
	FeeBps            float64       `json:"fee_bps" yaml:"fee_bps"`
	SettlementSeconds int           `json:"settlement_seconds" yaml:"settlement_seconds"`
	SupportedCoins    []string      `json:"supported_coins" yaml:"supported_coins"`
	Reliability       float64       `json:"reliability" yaml:"reliability"`
	STPEnabled        bool          `json:"stp_enabled" yaml:"stp_enabled"`
	Regulated         bool          `json:"regulated" yaml:"regulated"`
}

// Supports reports whether the ramp carries the coin in the direction.
func (r *Ramp) Supports(coin string, dir RampDirection) bool {
	if r.Direction != RampBi && r.Direction != dir {
		return false
	}
	for _, c := range r.SupportedCoins {
		if c == coin {
			return true
		}
	}
	return false
}

// SwapStatus is the maturity of an atomic-swap corridor.
type SwapStatus string

const (
	SwapPilot        SwapStatus = "PILOT"
	SwapExperimental SwapStatus = "EXPERIMENTAL"
	SwapPlanned      SwapStatus = "PLANNED"
)

// AtomicSwapPair is an HTLC corridor between a CBDC and a stablecoin.
type AtomicSwapPair struct {
	CBDC              string     `json:"cbdc" yaml:"cbdc"`
	Stablecoin        string     `json:"stablecoin" yaml:"stablecoin"`
	Status            SwapStatus `json:"status" yaml:"status"`
	FeeBps            float64    `json:"fee_bps" yaml:"fee_bps"`
	SettlementSeconds int        `json:"settlement_seconds" yaml:"settlement_seconds"`
}
