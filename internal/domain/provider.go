package domain

import (
	"fmt"
	"time"
)

// ProviderType classifies a liquidity or execution provider.
type ProviderType string

const (
	ProviderMarketData    ProviderType = "MARKET_DATA"
	ProviderInternal      ProviderType = "INTERNAL"
	ProviderCorrespondent ProviderType = "CORRESPONDENT"
	ProviderLocal         ProviderType = "LOCAL"
	ProviderFintech       ProviderType = "FINTECH"
	ProviderDealer        ProviderType = "DEALER"
)

// OperatingHours is a daily window in "HH:MM" local-to-deployment time.
// A zero value means always open.
type OperatingHours struct {
	Open  string `json:"open,omitempty" yaml:"open"`
	Close string `json:"close,omitempty" yaml:"close"`
}

// AlwaysOpen reports whether no window is configured.
func (h OperatingHours) AlwaysOpen() bool {
	return h.Open == "" && h.Close == ""
}

// Contains reports whether t falls inside the window. Windows may wrap
// midnight ("22:00"–"06:00").
func (h OperatingHours) Contains(t time.Time) bool {
	if h.AlwaysOpen() {
		return true
	}
	open, err1 := parseClock(h.Open)
	close, err2 := parseClock(h.Close)
	if err1 != nil || err2 != nil {
		return true
	}
	cur := t.Hour()*60 + t.Minute()
	if open <= close {
		return cur >= open && cur < close
	}
	return cur >= open || cur < close
}

func parseClock(s string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, err
	}
	return hh*60 + mm, nil
}

// Provider is an execution venue for fiat legs.
type Provider struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           ProviderType   `json:"type" yaml:"type"`
	Reliability    float64        `json:"reliability" yaml:"reliability"`
	AvgLatencyMs   float64        `json:"avg_latency_ms" yaml:"avg_latency_ms"`
	SettlementHrs  float64        `json:"settlement_hours" yaml:"settlement_hours"`
	MinAmount      float64        `json:"min_amount" yaml:"min_amount"`
	DailyLimit     float64        `json:"daily_limit" yaml:"daily_limit"`
	MarkupBps      float64        `json:"markup_bps" yaml:"markup_bps"`
	SupportedPairs []string       `json:"supported_pairs" yaml:"supported_pairs"`
	OperatingHours OperatingHours `json:"operating_hours" yaml:"operating_hours"`
	STPEnabled     bool           `json:"stp_enabled" yaml:"stp_enabled"`
	IsActive       bool           `json:"is_active" yaml:"is_active"`
}

// SupportsPair reports whether the provider quotes the pair. A single
// "*" entry means all pairs.
func (p *Provider) SupportsPair(pair string) bool {
	for _, s := range p.SupportedPairs {
		if s == "*" || s == pair {
			return true
		}
	}
	return false
}
