package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fintaar/crossrail/internal/domain"
)

// overlayDir replaces whole tables from JSON documents under dir. A
// missing file leaves the built-in table in place; a malformed file
// fails the reload.
func overlayDir(s *Snapshot, dir string) error {
	if err := loadKeyed(filepath.Join(dir, "providers.json"), &s.Providers, func(p domain.Provider) string { return p.ID }); err != nil {
		return err
	}
	if err := loadKeyed(filepath.Join(dir, "tiers.json"), &s.Tiers, func(t domain.CustomerTier) string { return t.ID }); err != nil {
		return err
	}
	if err := loadKeyed(filepath.Join(dir, "segments.json"), &s.Segments, func(t domain.PricingSegment) string { return t.ID }); err != nil {
		return err
	}
	if err := loadSlice(filepath.Join(dir, "amount_tiers.json"), &s.AmountTiers); err != nil {
		return err
	}
	if err := loadSlice(filepath.Join(dir, "currency_categories.json"), &s.Categories); err != nil {
		return err
	}
	if err := loadKeyed(filepath.Join(dir, "cbdc_registry.json"), &s.CBDCs, func(c domain.CBDC) string { return c.Code }); err != nil {
		return err
	}
	if err := loadKeyed(filepath.Join(dir, "stablecoin_registry.json"), &s.Stablecoins, func(c domain.Stablecoin) string { return c.Code }); err != nil {
		return err
	}
	if err := loadSlice(filepath.Join(dir, "ramps.json"), &s.Ramps); err != nil {
		return err
	}
	if err := loadSlice(filepath.Join(dir, "atomic_swaps.json"), &s.AtomicSwaps); err != nil {
		return err
	}
	if err := loadNegotiated(filepath.Join(dir, "negotiated_rates.json"), s); err != nil {
		return err
	}
	return nil
}

// loadSlice reads a JSON array document into dst if the file exists.
func loadSlice[T any](path string, dst *[]T) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	*dst = items
	log.Debug().Str("file", path).Int("entries", len(items)).Msg("reference table overlaid")
	return nil
}

// loadKeyed reads a JSON array and rebuilds the keyed table from it.
func loadKeyed[T any](path string, dst *map[string]T, key func(T) string) error {
	var items []T
	if err := loadSlice(path, &items); err != nil {
		return err
	}
	if items == nil {
		return nil
	}
	out := make(map[string]T, len(items))
	for _, it := range items {
		out[key(it)] = it
	}
	*dst = out
	return nil
}

func loadNegotiated(path string, s *Snapshot) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var out map[string]float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	s.NegotiatedDiscounts = out
	return nil
}
