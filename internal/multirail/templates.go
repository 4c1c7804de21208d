package multirail

import (
	"fmt"

	"github.com/fintaar/crossrail/internal/domain"
	"github.com/fintaar/crossrail/internal/refdata"
)

// railClass is one of the nine (source rail, target rail) combinations.
type railClass struct {
	From domain.RailType
	To   domain.RailType
}

// legSpec is the blueprint for one leg before registry substitution.
type legSpec struct {
	Mechanism         domain.LegMechanism
	FeeBps            float64
	SettlementSeconds int
	Reliability       float64
	STP               bool
}

// Template is one catalogue entry. Fees and settlement times live here
// as data; materialise substitutes concrete registry references where a
// template needs them.
type Template struct {
	Name      string
	Rail      domain.RailType // dominant settlement rail of the route
	Regulated bool
	Legs      []legSpec
}

// mBridge corridors settle through a central-bank platform; ramps run
// by regulated issuers clear near-instantly.
const (
	mBridgeReliability = 0.95
	issuerReliability  = 0.98
)

// catalogue is the full route matrix. Changing a fee or settlement time
// here changes routing outcomes for every caller.
var catalogue = map[railClass][]Template{
	{domain.RailFiat, domain.RailFiat}: {
		{Name: "SWIFT", Rail: domain.RailFiat, Regulated: true, Legs: []legSpec{
			{domain.MechSwift, 25, 172800, 0.99, false},
		}},
		{Name: "LOCAL", Rail: domain.RailFiat, Regulated: true, Legs: []legSpec{
			{domain.MechLocalRails, 15, 14400, 0.97, true},
		}},
		{Name: "FINTECH", Rail: domain.RailFiat, Regulated: true, Legs: []legSpec{
			{domain.MechFintech, 6, 7200, 0.97, true},
		}},
		{Name: "TRIANGULATED", Rail: domain.RailFiat, Regulated: true, Legs: []legSpec{
			{domain.MechFXConvert, 15, 172800, 0.98, true},
			{domain.MechFXConvert, 15, 172800, 0.98, true},
		}},
	},
	{domain.RailFiat, domain.RailCBDC}: {
		{Name: "DIRECT_MINT", Rail: domain.RailCBDC, Regulated: true},
		{Name: "FX_THEN_MINT", Rail: domain.RailCBDC, Regulated: true},
		{Name: "MBRIDGE_ROUTE", Rail: domain.RailCBDC, Regulated: true},
	},
	{domain.RailCBDC, domain.RailFiat}: {
		{Name: "DIRECT_REDEEM", Rail: domain.RailCBDC, Regulated: true},
		{Name: "REDEEM_THEN_FX", Rail: domain.RailCBDC, Regulated: true},
	},
	{domain.RailCBDC, domain.RailCBDC}: {
		{Name: "MBRIDGE_PVP", Rail: domain.RailCBDC, Regulated: true},
		{Name: "PROJECT_NEXUS", Rail: domain.RailCBDC, Regulated: true},
		{Name: "FIAT_BRIDGE", Rail: domain.RailFiat, Regulated: true},
	},
	{domain.RailFiat, domain.RailStablecoin}: {
		{Name: "CIRCLE_ONRAMP", Rail: domain.RailStablecoin, Regulated: true},
		{Name: "CEX_ONRAMP", Rail: domain.RailStablecoin, Regulated: false, Legs: []legSpec{
			{domain.MechCEXTrade, 25, 3600, 0.96, false},
		}},
		{Name: "FX_ONRAMP", Rail: domain.RailStablecoin, Regulated: true},
	},
	{domain.RailStablecoin, domain.RailFiat}: {
		{Name: "CIRCLE_OFFRAMP", Rail: domain.RailStablecoin, Regulated: true},
		{Name: "CEX_OFFRAMP", Rail: domain.RailStablecoin, Regulated: false, Legs: []legSpec{
			{domain.MechCEXTrade, 25, 3600, 0.96, false},
		}},
		{Name: "OFFRAMP_FX", Rail: domain.RailStablecoin, Regulated: true},
	},
	{domain.RailStablecoin, domain.RailStablecoin}: {
		{Name: "CURVE", Rail: domain.RailStablecoin, Regulated: false, Legs: []legSpec{
			{domain.MechDEXSwap, 4, 60, 0.97, true},
		}},
		{Name: "UNISWAP", Rail: domain.RailStablecoin, Regulated: false, Legs: []legSpec{
			{domain.MechDEXSwap, 30, 60, 0.95, true},
		}},
		{Name: "CEX", Rail: domain.RailStablecoin, Regulated: false, Legs: []legSpec{
			{domain.MechCEXTrade, 20, 3600, 0.96, false},
		}},
	},
	{domain.RailCBDC, domain.RailStablecoin}: {
		{Name: "FIAT_BRIDGE", Rail: domain.RailFiat, Regulated: true},
		{Name: "CEX_BRIDGE", Rail: domain.RailStablecoin, Regulated: false},
		{Name: "MBRIDGE_HYBRID", Rail: domain.RailCBDC, Regulated: true},
		{Name: "DEX_LIQUIDITY", Rail: domain.RailStablecoin, Regulated: false, Legs: []legSpec{
			{domain.MechDEXSwap, 35, 120, 0.93, true},
		}},
		{Name: "ATOMIC_SWAP", Rail: domain.RailCBDC, Regulated: false},
	},
	{domain.RailStablecoin, domain.RailCBDC}: {
		{Name: "FIAT_BRIDGE", Rail: domain.RailFiat, Regulated: true},
		{Name: "CEX_BRIDGE", Rail: domain.RailStablecoin, Regulated: false},
		{Name: "OTC", Rail: domain.RailStablecoin, Regulated: true, Legs: []legSpec{
			{domain.MechOTC, 15, 7200, 0.97, false},
		}},
		{Name: "LIQUIDITY_POOL", Rail: domain.RailStablecoin, Regulated: false, Legs: []legSpec{
			{domain.MechDEXSwap, 40, 120, 0.93, true},
		}},
		{Name: "ATOMIC_SWAP", Rail: domain.RailCBDC, Regulated: false},
	},
}

func inapplicable(tpl Template, format string, args ...interface{}) ([]domain.RouteLeg, domain.RouteAnnotations, bool, error) {
	return nil, domain.RouteAnnotations{}, false, &domain.TemplateInapplicableError{
		Template: tpl.Name, Reason: fmt.Sprintf(format, args...),
	}
}

func blueprintLegs(tpl Template, source, target string) []domain.RouteLeg {
	legs := make([]domain.RouteLeg, 0, len(tpl.Legs))
	for i, l := range tpl.Legs {
		from, to := source, target
		if len(tpl.Legs) > 1 {
			// intermediate hops are labelled by position
			if i > 0 {
				from = "VIA"
			}
			if i < len(tpl.Legs)-1 {
				to = "VIA"
			}
		}
		legs = append(legs, domain.RouteLeg{
			From: from, To: to, Mechanism: l.Mechanism,
			FeeBps: l.FeeBps, SettlementSeconds: l.SettlementSeconds,
			Reliability: l.Reliability, STPCapable: l.STP,
		})
	}
	return legs
}

func mintLeg(from string, c domain.CBDC) domain.RouteLeg {
	return domain.RouteLeg{
		From: from, To: c.Code, Mechanism: domain.MechMint, Ref: c.Issuer,
		FeeBps: c.Fees.IssuanceBps, SettlementSeconds: c.SettlementSeconds,
		Reliability: 0.99, STPCapable: true,
	}
}

func redeemLeg(c domain.CBDC, to string) domain.RouteLeg {
	return domain.RouteLeg{
		From: c.Code, To: to, Mechanism: domain.MechRedeem, Ref: c.Issuer,
		FeeBps: c.Fees.RedemptionBps, SettlementSeconds: c.SettlementSeconds,
		Reliability: 0.99, STPCapable: true,
	}
}

func rampLeg(mech domain.LegMechanism, from, to string, r domain.Ramp) domain.RouteLeg {
	return domain.RouteLeg{
		From: from, To: to, Mechanism: mech, Ref: r.ID,
		FeeBps: r.FeeBps, SettlementSeconds: r.SettlementSeconds,
		Reliability: r.Reliability, STPCapable: r.STPEnabled,
	}
}

func mBridgeLeg(from, to string) domain.RouteLeg {
	return domain.RouteLeg{
		From: from, To: to, Mechanism: domain.MechMBridge, Ref: "MBRIDGE",
		FeeBps: 13, SettlementSeconds: 15,
		Reliability: mBridgeReliability, STPCapable: true,
	}
}

func fxLeg(from, to string, feeBps float64) domain.RouteLeg {
	return domain.RouteLeg{
		From: from, To: to, Mechanism: domain.MechFXConvert,
		FeeBps: feeBps, SettlementSeconds: 14400,
		Reliability: issuerReliability, STPCapable: true,
	}
}

// materialise substitutes registry entries into a template. The bool is
// false with a TemplateInapplicableError when the registries cannot
// satisfy the template for this corridor.
func materialise(tpl Template, source, target string, snap *refdata.Snapshot) ([]domain.RouteLeg, domain.RouteAnnotations, bool, error) {
	var ann domain.RouteAnnotations

	switch tpl.Name {
	case "DIRECT_MINT":
		c := snap.CBDCs[target]
		if c.LinkedFiat != source {
			return inapplicable(tpl, "%s is not the linked fiat of %s", source, target)
		}
		return []domain.RouteLeg{mintLeg(source, c)}, ann, true, nil

	case "FX_THEN_MINT":
		c := snap.CBDCs[target]
		if c.LinkedFiat == source {
			return inapplicable(tpl, "direct mint available for %s", target)
		}
		return []domain.RouteLeg{fxLeg(source, c.LinkedFiat, 20), mintLeg(c.LinkedFiat, c)}, ann, true, nil

	case "MBRIDGE_ROUTE":
		tgt := snap.CBDCs[target]
		if !tgt.MBridgeParticipant {
			return inapplicable(tpl, "%s is not an mBridge participant", target)
		}
		src, ok := mBridgeCBDCForFiat(snap, source)
		if !ok {
			return inapplicable(tpl, "no mBridge CBDC linked to %s", source)
		}
		if src.Code == target {
			return inapplicable(tpl, "domestic mint needs no corridor")
		}
		ann.MBridge = true
		return []domain.RouteLeg{mintLeg(source, src), mBridgeLeg(src.Code, target)}, ann, true, nil

	case "DIRECT_REDEEM":
		c := snap.CBDCs[source]
		if c.LinkedFiat != target {
			return inapplicable(tpl, "%s is not the linked fiat of %s", target, source)
		}
		return []domain.RouteLeg{redeemLeg(c, target)}, ann, true, nil

	case "REDEEM_THEN_FX":
		c := snap.CBDCs[source]
		if c.LinkedFiat == target {
			return inapplicable(tpl, "direct redeem available for %s", source)
		}
		return []domain.RouteLeg{redeemLeg(c, c.LinkedFiat), fxLeg(c.LinkedFiat, target, 20)}, ann, true, nil

	case "MBRIDGE_PVP":
		set := snap.MBridgeSet()
		if !set[source] || !set[target] {
			return inapplicable(tpl, "both %s and %s must be mBridge participants", source, target)
		}
		ann.MBridge = true
		return []domain.RouteLeg{mBridgeLeg(source, target)}, ann, true, nil

	case "PROJECT_NEXUS":
		src, tgt := snap.CBDCs[source], snap.CBDCs[target]
		if !snap.NexusFiats[src.LinkedFiat] || !snap.NexusFiats[tgt.LinkedFiat] {
			return inapplicable(tpl, "linked fiats %s/%s not both Nexus members", src.LinkedFiat, tgt.LinkedFiat)
		}
		return []domain.RouteLeg{
			redeemLeg(src, src.LinkedFiat),
			{From: src.LinkedFiat, To: tgt.LinkedFiat, Mechanism: domain.MechNexus, Ref: "NEXUS",
				FeeBps: 35, SettlementSeconds: 60, Reliability: 0.97, STPCapable: true},
			mintLeg(tgt.LinkedFiat, tgt),
		}, ann, true, nil

	case "FIAT_BRIDGE":
		return materialiseFiatBridge(tpl, source, target, snap)

	case "CIRCLE_ONRAMP":
		coin := snap.Stablecoins[target]
		if coin.PegCurrency != source {
			return inapplicable(tpl, "%s is not pegged to %s", target, source)
		}
		ramp, ok := snap.CheapestRamp(target, domain.RampOn)
		if !ok {
			return inapplicable(tpl, "no on-ramp carries %s", target)
		}
		return []domain.RouteLeg{rampLeg(domain.MechOnRamp, source, target, ramp)}, ann, true, nil

	case "FX_ONRAMP":
		coin := snap.Stablecoins[target]
		if coin.PegCurrency == source {
			return inapplicable(tpl, "direct on-ramp available for %s", target)
		}
		ramp, ok := snap.CheapestRamp(target, domain.RampOn)
		if !ok {
			return inapplicable(tpl, "no on-ramp carries %s", target)
		}
		ramp.FeeBps = 25 // fixed bundled conversion overhead
		return []domain.RouteLeg{fxLeg(source, coin.PegCurrency, 25), rampLeg(domain.MechOnRamp, coin.PegCurrency, target, ramp)}, ann, true, nil

	case "CIRCLE_OFFRAMP":
		coin := snap.Stablecoins[source]
		if coin.PegCurrency != target {
			return inapplicable(tpl, "%s is not pegged to %s", source, target)
		}
		ramp, ok := snap.CheapestRamp(source, domain.RampOff)
		if !ok {
			return inapplicable(tpl, "no off-ramp carries %s", source)
		}
		return []domain.RouteLeg{rampLeg(domain.MechOffRamp, source, target, ramp)}, ann, true, nil

	case "OFFRAMP_FX":
		coin := snap.Stablecoins[source]
		if coin.PegCurrency == target {
			return inapplicable(tpl, "direct off-ramp available for %s", source)
		}
		ramp, ok := snap.CheapestRamp(source, domain.RampOff)
		if !ok {
			return inapplicable(tpl, "no off-ramp carries %s", source)
		}
		ramp.FeeBps = 25
		return []domain.RouteLeg{rampLeg(domain.MechOffRamp, source, coin.PegCurrency, ramp), fxLeg(coin.PegCurrency, target, 25)}, ann, true, nil

	case "CEX_BRIDGE":
		if _, ok := snap.CBDCs[source]; ok {
			return []domain.RouteLeg{
				redeemLeg(snap.CBDCs[source], snap.CBDCs[source].LinkedFiat),
				{From: snap.CBDCs[source].LinkedFiat, To: target, Mechanism: domain.MechCEXTrade,
					FeeBps: 50, SettlementSeconds: 3600, Reliability: 0.96},
			}, ann, true, nil
		}
		c := snap.CBDCs[target]
		return []domain.RouteLeg{
			{From: source, To: c.LinkedFiat, Mechanism: domain.MechCEXTrade,
				FeeBps: 50, SettlementSeconds: 3600, Reliability: 0.96},
			mintLeg(c.LinkedFiat, c),
		}, ann, true, nil

	case "MBRIDGE_HYBRID":
		c := snap.CBDCs[source]
		if !c.MBridgeParticipant {
			return inapplicable(tpl, "%s is not an mBridge participant", source)
		}
		ramp, ok := snap.CheapestRamp(target, domain.RampOn)
		if !ok {
			return inapplicable(tpl, "no on-ramp carries %s", target)
		}
		ramp.FeeBps = 25
		ann.MBridge = true
		return []domain.RouteLeg{mBridgeLeg(source, c.LinkedFiat), rampLeg(domain.MechOnRamp, c.LinkedFiat, target, ramp)}, ann, true, nil

	case "ATOMIC_SWAP":
		cbdc, coin := source, target
		if _, ok := snap.CBDCs[cbdc]; !ok {
			cbdc, coin = target, source
		}
		pair, ok := snap.AtomicSwap(cbdc, coin)
		if !ok {
			return inapplicable(tpl, "no atomic-swap corridor for %s/%s", cbdc, coin)
		}
		ann.Experimental = pair.Status != domain.SwapPilot
		return []domain.RouteLeg{{
			From: source, To: target, Mechanism: domain.MechAtomicSwap,
			Ref: string(pair.Status), FeeBps: pair.FeeBps, SettlementSeconds: pair.SettlementSeconds,
			Reliability: 0.90, STPCapable: true,
		}}, ann, true, nil

	default:
		if len(tpl.Legs) == 0 {
			return inapplicable(tpl, "no blueprint for %s", tpl.Name)
		}
		return blueprintLegs(tpl, source, target), ann, true, nil
	}
}

// materialiseFiatBridge handles the three corridors that share the
// FIAT_BRIDGE name: C→C, C→S and S→C.
func materialiseFiatBridge(tpl Template, source, target string, snap *refdata.Snapshot) ([]domain.RouteLeg, domain.RouteAnnotations, bool, error) {
	var ann domain.RouteAnnotations
	srcCBDC, srcIsCBDC := snap.CBDCs[source]
	tgtCBDC, tgtIsCBDC := snap.CBDCs[target]

	switch {
	case srcIsCBDC && tgtIsCBDC:
		return []domain.RouteLeg{
			redeemLeg(srcCBDC, srcCBDC.LinkedFiat),
			fxLeg(srcCBDC.LinkedFiat, tgtCBDC.LinkedFiat, 40),
			mintLeg(tgtCBDC.LinkedFiat, tgtCBDC),
		}, ann, true, nil
	case srcIsCBDC:
		ramp, ok := snap.CheapestRamp(target, domain.RampOn)
		if !ok {
			return inapplicable(tpl, "no on-ramp carries %s", target)
		}
		ramp.FeeBps = 25
		return []domain.RouteLeg{redeemLeg(srcCBDC, srcCBDC.LinkedFiat), rampLeg(domain.MechOnRamp, srcCBDC.LinkedFiat, target, ramp)}, ann, true, nil
	default:
		ramp, ok := snap.CheapestRamp(source, domain.RampOff)
		if !ok {
			return inapplicable(tpl, "no off-ramp carries %s", source)
		}
		ramp.FeeBps = 25
		return []domain.RouteLeg{rampLeg(domain.MechOffRamp, source, tgtCBDC.LinkedFiat, ramp), mintLeg(tgtCBDC.LinkedFiat, tgtCBDC)}, ann, true, nil
	}
}

// mBridgeCBDCForFiat finds the mBridge-participant CBDC linked to the
// fiat, preferring the lowest issuance fee.
func mBridgeCBDCForFiat(snap *refdata.Snapshot, fiat string) (domain.CBDC, bool) {
	var best domain.CBDC
	found := false
	for _, c := range snap.CBDCs {
		if !c.MBridgeParticipant || c.LinkedFiat != fiat {
			continue
		}
		if !found || c.Fees.IssuanceBps < best.Fees.IssuanceBps {
			best = c
			found = true
		}
	}
	return best, found
}
