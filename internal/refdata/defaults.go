package refdata

import "github.com/fintaar/crossrail/internal/domain"

// defaultSnapshot builds the built-in reference tables. A deployment
// overrides individual tables by dropping JSON documents into the data
// directory.
func defaultSnapshot() *Snapshot {
	return &Snapshot{
		Providers:           defaultProviders(),
		Tiers:               defaultTiers(),
		Segments:            defaultSegments(),
		AmountTiers:         defaultAmountTiers(),
		Categories:          defaultCategories(),
		CBDCs:               defaultCBDCs(),
		Stablecoins:         defaultStablecoins(),
		Ramps:               defaultRamps(),
		AtomicSwaps:         defaultAtomicSwaps(),
		NexusFiats:          defaultNexusFiats(),
		NegotiatedDiscounts: map[string]float64{},
	}
}

func defaultProviders() map[string]domain.Provider {
	list := []domain.Provider{
		{
			ID: "TREASURY_INTERNAL", Name: "Treasury Desk", Type: domain.ProviderInternal,
			Reliability: 0.99, AvgLatencyMs: 50, SettlementHrs: 0.5,
			MinAmount: 1_000, DailyLimit: 50_000_000, MarkupBps: 15,
			SupportedPairs: []string{"*"}, STPEnabled: true, IsActive: true,
		},
		{
			ID: "CITI_CORRESPONDENT", Name: "Citibank Correspondent", Type: domain.ProviderCorrespondent,
			Reliability: 0.97, AvgLatencyMs: 180, SettlementHrs: 24,
			MinAmount: 5_000, DailyLimit: 100_000_000, MarkupBps: 25,
			SupportedPairs: []string{"USDINR", "USDSGD", "USDCNY", "USDHKD", "EURUSD", "GBPUSD", "USDJPY", "USDAED", "USDTHB"},
			OperatingHours: domain.OperatingHours{Open: "01:00", Close: "23:00"},
			STPEnabled:     true, IsActive: true,
		},
		{
			ID: "HSBC_CORRESPONDENT", Name: "HSBC Correspondent", Type: domain.ProviderCorrespondent,
			Reliability: 0.96, AvgLatencyMs: 200, SettlementHrs: 24,
			MinAmount: 5_000, DailyLimit: 80_000_000, MarkupBps: 22,
			SupportedPairs: []string{"USDINR", "USDSGD", "USDHKD", "USDCNY", "EURUSD", "GBPUSD", "USDTHB", "USDAED"},
			OperatingHours: domain.OperatingHours{Open: "01:00", Close: "23:00"},
			STPEnabled:     true, IsActive: true,
		},
		{
			ID: "DBS_LOCAL", Name: "DBS Local Clearing", Type: domain.ProviderLocal,
			Reliability: 0.95, AvgLatencyMs: 90, SettlementHrs: 4,
			MinAmount: 1_000, DailyLimit: 20_000_000, MarkupBps: 18,
			SupportedPairs: []string{"USDSGD", "USDINR", "USDHKD", "USDTHB", "SGDINR"},
			STPEnabled:     true, IsActive: true,
		},
		{
			ID: "WISE", Name: "Wise Platform", Type: domain.ProviderFintech,
			Reliability: 0.97, AvgLatencyMs: 120, SettlementHrs: 2,
			MinAmount: 10, DailyLimit: 1_000_000, MarkupBps: 18,
			SupportedPairs: []string{"*"}, STPEnabled: true, IsActive: true,
		},
		{
			ID: "GS_DEALER", Name: "Goldman Sachs eFX", Type: domain.ProviderDealer,
			Reliability: 0.98, AvgLatencyMs: 150, SettlementHrs: 24,
			MinAmount: 1_000_000, DailyLimit: 500_000_000, MarkupBps: 30,
			SupportedPairs: []string{"USDINR", "EURUSD", "GBPUSD", "USDJPY", "USDCNY"},
			STPEnabled:     false, IsActive: true,
		},
	}
	out := make(map[string]domain.Provider, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out
}

func defaultTiers() map[string]domain.CustomerTier {
	list := []domain.CustomerTier{
		{ID: "PLATINUM", MinAnnualVolume: 500_000_000, MarkupDiscountPct: 50, SpreadReductionBp: 10, PriorityRouting: true, MaxTransaction: 50_000_000, STPThreshold: 5_000_000, DefaultObjective: domain.ObjectiveOptimum},
		{ID: "GOLD", MinAnnualVolume: 100_000_000, MarkupDiscountPct: 30, SpreadReductionBp: 5, PriorityRouting: true, MaxTransaction: 20_000_000, STPThreshold: 1_000_000, DefaultObjective: domain.ObjectiveBestRate},
		{ID: "SILVER", MinAnnualVolume: 20_000_000, MarkupDiscountPct: 15, SpreadReductionBp: 2, MaxTransaction: 5_000_000, STPThreshold: 250_000, DefaultObjective: domain.ObjectiveBestRate},
		{ID: "BRONZE", MinAnnualVolume: 1_000_000, MarkupDiscountPct: 5, MaxTransaction: 1_000_000, STPThreshold: 50_000, DefaultObjective: domain.ObjectiveOptimum},
		{ID: "RETAIL", MaxTransaction: 100_000, STPThreshold: 10_000, DefaultObjective: domain.ObjectiveBestRate},
	}
	out := make(map[string]domain.CustomerTier, len(list))
	for _, t := range list {
		out[t.ID] = t
	}
	return out
}

func defaultSegments() map[string]domain.PricingSegment {
	list := []domain.PricingSegment{
		{ID: "INSTITUTIONAL", Class: domain.SegmentClassInstitutional, BaseMarginBps: 5, MinMarginBps: 2, MaxMarginBps: 20, VolumeDiscountEligble: true, NegotiatedRatesAllowd: true},
		{ID: "LARGE_CORPORATE", Class: domain.SegmentClassCorporate, BaseMarginBps: 25, MinMarginBps: 10, MaxMarginBps: 75, VolumeDiscountEligble: true, NegotiatedRatesAllowd: true},
		{ID: "MID_MARKET", Class: domain.SegmentClassCorporate, BaseMarginBps: 75, MinMarginBps: 40, MaxMarginBps: 150, VolumeDiscountEligble: true},
		{ID: "SMALL_BUSINESS", Class: domain.SegmentClassRetail, BaseMarginBps: 150, MinMarginBps: 100, MaxMarginBps: 250},
		{ID: "RETAIL", Class: domain.SegmentClassRetail, BaseMarginBps: 300, MinMarginBps: 200, MaxMarginBps: 500},
		{ID: "PRIVATE_BANKING", Class: domain.SegmentClassInstitutional, BaseMarginBps: 50, MinMarginBps: 20, MaxMarginBps: 100, VolumeDiscountEligble: true, NegotiatedRatesAllowd: true},
	}
	out := make(map[string]domain.PricingSegment, len(list))
	for _, s := range list {
		out[s.ID] = s
	}
	return out
}

func defaultAmountTiers() []domain.AmountTier {
	return []domain.AmountTier{
		{ID: "TIER_1", MinAmount: 0, MaxAmount: 10_000, AdjustmentBps: 50, Description: "micro"},
		{ID: "TIER_2", MinAmount: 10_000, MaxAmount: 50_000, AdjustmentBps: 25, Description: "small"},
		{ID: "TIER_3", MinAmount: 50_000, MaxAmount: 100_000, AdjustmentBps: 0, Description: "standard"},
		{ID: "TIER_4", MinAmount: 100_000, MaxAmount: 500_000, AdjustmentBps: -15, Description: "large"},
		{ID: "TIER_5", MinAmount: 500_000, MaxAmount: 1_000_000, AdjustmentBps: -25, Description: "block"},
		{ID: "TIER_6", MinAmount: 1_000_000, Unbounded: true, AdjustmentBps: -40, Description: "institutional block"},
	}
}

func defaultCategories() []domain.CurrencyCategory {
	return []domain.CurrencyCategory{
		{
			ID:         domain.CategoryG10,
			Currencies: []string{"USD", "EUR", "JPY", "GBP", "CHF", "AUD", "NZD", "CAD"},
			MarkupBps:  map[string]float64{domain.SegmentClassRetail: 50, domain.SegmentClassCorporate: 15, domain.SegmentClassInstitutional: 2},
		},
		{
			ID:         domain.CategoryMinor,
			Currencies: []string{"SGD", "HKD", "DKK", "PLN", "CZK"},
			MarkupBps:  map[string]float64{domain.SegmentClassRetail: 100, domain.SegmentClassCorporate: 30, domain.SegmentClassInstitutional: 5},
		},
		{
			ID:         domain.CategoryExotic,
			Currencies: []string{"TRY", "ZAR", "MXN", "BRL"},
			MarkupBps:  map[string]float64{domain.SegmentClassRetail: 200, domain.SegmentClassCorporate: 75, domain.SegmentClassInstitutional: 15},
		},
		{
			ID:         domain.CategoryRestricted,
			Currencies: []string{"INR", "CNY", "KRW", "TWD", "PHP", "THB", "AED", "MYR", "IDR"},
			MarkupBps:  map[string]float64{domain.SegmentClassRetail: 300, domain.SegmentClassCorporate: 100, domain.SegmentClassInstitutional: 25},
		},
	}
}

func defaultCBDCs() map[string]domain.CBDC {
	list := []domain.CBDC{
		{Code: "e-CNY", Issuer: "People's Bank of China", LinkedFiat: "CNY", Status: domain.CBDCLive, SettlementSeconds: 10, MBridgeParticipant: true, CrossBorderEnabled: true, Fees: domain.CBDCFees{TransferBps: 1}},
		{Code: "e-HKD", Issuer: "Hong Kong Monetary Authority", LinkedFiat: "HKD", Status: domain.CBDCLive, SettlementSeconds: 8, MBridgeParticipant: true, CrossBorderEnabled: true, Fees: domain.CBDCFees{TransferBps: 1}},
		{Code: "e-THB", Issuer: "Bank of Thailand", LinkedFiat: "THB", Status: domain.CBDCPilot, SettlementSeconds: 12, MBridgeParticipant: true, CrossBorderEnabled: true, Fees: domain.CBDCFees{TransferBps: 2}},
		{Code: "e-AED", Issuer: "Central Bank of the UAE", LinkedFiat: "AED", Status: domain.CBDCPilot, SettlementSeconds: 10, MBridgeParticipant: true, CrossBorderEnabled: true, Fees: domain.CBDCFees{TransferBps: 2}},
		{Code: "e-INR", Issuer: "Reserve Bank of India", LinkedFiat: "INR", Status: domain.CBDCPilot, SettlementSeconds: 15, CrossBorderEnabled: true, Fees: domain.CBDCFees{IssuanceBps: 0, RedemptionBps: 0, TransferBps: 2}},
		{Code: "e-SGD", Issuer: "Monetary Authority of Singapore", LinkedFiat: "SGD", Status: domain.CBDCPilot, SettlementSeconds: 8, CrossBorderEnabled: true, Fees: domain.CBDCFees{TransferBps: 1}},
	}
	out := make(map[string]domain.CBDC, len(list))
	for _, c := range list {
		out[c.Code] = c
	}
	return out
}

func defaultStablecoins() map[string]domain.Stablecoin {
	list := []domain.Stablecoin{
		{
			Code: "USDC", Issuer: "Circle", PegCurrency: "USD", PegRatio: 1, Regulated: true, LiquidityScore: 0.98,
			Networks: []domain.StablecoinNetwork{
				{Chain: "ethereum", SettlementSeconds: 60, FeeUSD: 5},
				{Chain: "base", SettlementSeconds: 5, FeeUSD: 0.05},
				{Chain: "solana", SettlementSeconds: 2, FeeUSD: 0.01},
			},
			Fees: domain.StablecoinFees{TransferBps: 1},
		},
		{
			Code: "USDT", Issuer: "Tether", PegCurrency: "USD", PegRatio: 1, Regulated: false, LiquidityScore: 0.97,
			Networks: []domain.StablecoinNetwork{
				{Chain: "ethereum", SettlementSeconds: 60, FeeUSD: 5},
				{Chain: "tron", SettlementSeconds: 3, FeeUSD: 1},
			},
			Fees: domain.StablecoinFees{TransferBps: 1},
		},
		{
			Code: "EURC", Issuer: "Circle", PegCurrency: "EUR", PegRatio: 1, Regulated: true, LiquidityScore: 0.85,
			Networks: []domain.StablecoinNetwork{{Chain: "ethereum", SettlementSeconds: 60, FeeUSD: 5}},
			Fees:     domain.StablecoinFees{TransferBps: 2},
		},
		{
			Code: "XSGD", Issuer: "StraitsX", PegCurrency: "SGD", PegRatio: 1, Regulated: true, LiquidityScore: 0.80,
			Networks: []domain.StablecoinNetwork{{Chain: "ethereum", SettlementSeconds: 60, FeeUSD: 5}, {Chain: "polygon", SettlementSeconds: 5, FeeUSD: 0.1}},
			Fees:     domain.StablecoinFees{MintBps: 5, RedeemBps: 5, TransferBps: 2},
		},
	}
	out := make(map[string]domain.Stablecoin, len(list))
	for _, c := range list {
		out[c.Code] = c
	}
	return out
}

func defaultRamps() []domain.Ramp {
	return []domain.Ramp{
		{ID: "CIRCLE", Name: "Circle Mint", Direction: domain.RampBi, FeeBps: 0, SettlementSeconds: 3600, SupportedCoins: []string{"USDC", "EURC"}, Reliability: 0.98, STPEnabled: true, Regulated: true},
		{ID: "COINBASE_PRIME", Name: "Coinbase Prime", Direction: domain.RampBi, FeeBps: 25, SettlementSeconds: 7200, SupportedCoins: []string{"USDC", "USDT", "EURC"}, Reliability: 0.97, STPEnabled: true, Regulated: true},
		{ID: "STRAITSX", Name: "StraitsX", Direction: domain.RampBi, FeeBps: 10, SettlementSeconds: 3600, SupportedCoins: []string{"XSGD"}, Reliability: 0.96, STPEnabled: true, Regulated: true},
		{ID: "FALCONX_OTC", Name: "FalconX OTC", Direction: domain.RampBi, FeeBps: 15, SettlementSeconds: 86400, SupportedCoins: []string{"USDC", "USDT"}, Reliability: 0.95, Regulated: true},
	}
}

func defaultAtomicSwaps() []domain.AtomicSwapPair {
	return []domain.AtomicSwapPair{
		{CBDC: "e-INR", Stablecoin: "USDC", Status: domain.SwapExperimental, FeeBps: 5, SettlementSeconds: 300},
		{CBDC: "e-HKD", Stablecoin: "USDC", Status: domain.SwapPilot, FeeBps: 5, SettlementSeconds: 300},
		{CBDC: "e-CNY", Stablecoin: "USDT", Status: domain.SwapPlanned, FeeBps: 5, SettlementSeconds: 300},
	}
}

func defaultNexusFiats() map[string]bool {
	return map[string]bool{
		"SGD": true, "THB": true, "MYR": true, "PHP": true,
		"INR": true, "CNY": true, "HKD": true, "AED": true,
	}
}
