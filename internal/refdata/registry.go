// Package refdata owns the reference tables: providers, tiers,
// segments, amount tiers, currency categories, CBDCs, stablecoins,
// ramps and atomic-swap corridors. Readers take an immutable Snapshot;
// reloads and admin writes swap the snapshot atomically.
package refdata

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/fintaar/crossrail/internal/domain"
)

// Snapshot is one immutable generation of the reference tables. A
// request holds a single snapshot pointer for its whole duration.
type Snapshot struct {
	Providers   map[string]domain.Provider
	Tiers       map[string]domain.CustomerTier
	Segments    map[string]domain.PricingSegment
	AmountTiers []domain.AmountTier
	Categories  []domain.CurrencyCategory
	CBDCs       map[string]domain.CBDC
	Stablecoins map[string]domain.Stablecoin
	Ramps       []domain.Ramp
	AtomicSwaps []domain.AtomicSwapPair
	NexusFiats  map[string]bool
	// NegotiatedDiscounts maps customer id to a discount in bps.
	NegotiatedDiscounts map[string]float64

	knownFiats map[string]bool
}

// Registry is the single-writer owner of the reference snapshot.
type Registry struct {
	mu   sync.Mutex // serialises reload and admin writes
	snap atomic.Pointer[Snapshot]
	dir  string
}

// New builds a registry from the built-in defaults overlaid with any
// JSON documents found under dir (empty dir skips the overlay).
func New(dir string) (*Registry, error) {
	r := &Registry{dir: dir}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Snapshot returns the current immutable snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.snap.Load()
}

// Reload rebuilds the snapshot from defaults plus the data directory
// and swaps it in atomically. Concurrent readers keep their old
// snapshot until they next ask.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := defaultSnapshot()
	if r.dir != "" {
		if err := overlayDir(snap, r.dir); err != nil {
			return err
		}
	}
	snap.index()
	r.snap.Store(snap)
	log.Info().
		Int("providers", len(snap.Providers)).
		Int("cbdcs", len(snap.CBDCs)).
		Int("stablecoins", len(snap.Stablecoins)).
		Msg("reference data loaded")
	return nil
}

// index derives lookup structures after tables are final.
func (s *Snapshot) index() {
	sort.Slice(s.AmountTiers, func(i, j int) bool {
		return s.AmountTiers[i].MinAmount < s.AmountTiers[j].MinAmount
	})
	s.knownFiats = map[string]bool{}
	for _, cat := range s.Categories {
		for _, c := range cat.Currencies {
			s.knownFiats[c] = true
		}
	}
	for _, c := range s.CBDCs {
		s.knownFiats[c.LinkedFiat] = true
	}
	for _, c := range s.Stablecoins {
		s.knownFiats[c.PegCurrency] = true
	}
}

// Provider looks up a provider by id.
func (s *Snapshot) Provider(id string) (domain.Provider, bool) {
	p, ok := s.Providers[id]
	return p, ok
}

// ProviderList returns all providers sorted by id for stable iteration.
func (s *Snapshot) ProviderList() []domain.Provider {
	out := make([]domain.Provider, 0, len(s.Providers))
	for _, p := range s.Providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tier looks up a customer tier, falling back to RETAIL.
func (s *Snapshot) Tier(id string) domain.CustomerTier {
	if t, ok := s.Tiers[id]; ok {
		return t
	}
	return s.Tiers["RETAIL"]
}

// Segment looks up a pricing segment.
func (s *Snapshot) Segment(id string) (domain.PricingSegment, bool) {
	seg, ok := s.Segments[id]
	return seg, ok
}

// AmountTierFor returns the half-open band containing amount.
func (s *Snapshot) AmountTierFor(amount float64) domain.AmountTier {
	for _, t := range s.AmountTiers {
		if t.Contains(amount) {
			return t
		}
	}
	// amounts below every band land in the first
	if len(s.AmountTiers) > 0 {
		return s.AmountTiers[0]
	}
	return domain.AmountTier{}
}

// CategoryOf classifies a fiat currency; unknown codes are EXOTIC.
func (s *Snapshot) CategoryOf(code string) domain.CurrencyCategory {
	var exotic domain.CurrencyCategory
	for _, cat := range s.Categories {
		if cat.ID == domain.CategoryExotic {
			exotic = cat
		}
		for _, c := range cat.Currencies {
			if c == code {
				return cat
			}
		}
	}
	return exotic
}

// RailOf classifies a currency code into its rail type. ok is false for
// codes absent from every registry.
func (s *Snapshot) RailOf(code string) (domain.RailType, bool) {
	if _, ok := s.CBDCs[code]; ok {
		return domain.RailCBDC, true
	}
	if _, ok := s.Stablecoins[code]; ok {
		return domain.RailStablecoin, true
	}
	if s.knownFiats[code] {
		return domain.RailFiat, true
	}
	return "", false
}

// NegotiatedDiscount returns the negotiated discount in bps for a
// customer, 0 when none is on file.
func (s *Snapshot) NegotiatedDiscount(customerID string) float64 {
	return s.NegotiatedDiscounts[customerID]
}

// CheapestRamp returns the lowest-fee ramp carrying coin in the given
// direction.
func (s *Snapshot) CheapestRamp(coin string, dir domain.RampDirection) (domain.Ramp, bool) {
	var best domain.Ramp
	found := false
	for _, r := range s.Ramps {
		if !r.Supports(coin, dir) {
			continue
		}
		if !found || r.FeeBps < best.FeeBps {
			best = r
			found = true
		}
	}
	return best, found
}

// AtomicSwap returns the corridor for a CBDC/stablecoin pair in either
// orientation.
func (s *Snapshot) AtomicSwap(cbdc, coin string) (domain.AtomicSwapPair, bool) {
	for _, p := range s.AtomicSwaps {
		if p.CBDC == cbdc && p.Stablecoin == coin {
			return p, true
		}
	}
	return domain.AtomicSwapPair{}, false
}

// MBridgeSet returns the codes of mBridge-participant CBDCs.
func (s *Snapshot) MBridgeSet() map[string]bool {
	out := map[string]bool{}
	for code, c := range s.CBDCs {
		if c.MBridgeParticipant {
			out[code] = true
		}
	}
	return out
}

// CreateProvider adds a provider; the id must be new.
func (r *Registry) CreateProvider(p domain.Provider) error {
	if p.ID == "" {
		return domain.Validationf("id", "provider id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	if _, exists := cur.Providers[p.ID]; exists {
		return &domain.ReferenceDataConflictError{Table: "providers", Key: p.ID, Reason: "already exists"}
	}
	next := cur.clone()
	next.Providers[p.ID] = p
	next.index()
	r.snap.Store(next)
	log.Info().Str("provider", p.ID).Msg("provider created")
	return nil
}

// DeleteProvider removes a provider. Active providers are in use by the
// router and must be deactivated first.
func (r *Registry) DeleteProvider(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	p, exists := cur.Providers[id]
	if !exists {
		return &domain.NotFoundError{Kind: "provider", ID: id}
	}
	if p.IsActive {
		return &domain.ReferenceDataConflictError{Table: "providers", Key: id, Reason: "provider is active; deactivate before delete"}
	}
	next := cur.clone()
	delete(next.Providers, id)
	next.index()
	r.snap.Store(next)
	log.Info().Str("provider", id).Msg("provider deleted")
	return nil
}

// clone makes a deep-enough copy for copy-on-write: maps are re-made,
// values are copied by assignment.
func (s *Snapshot) clone() *Snapshot {
	next := &Snapshot{
		Providers:           make(map[string]domain.Provider, len(s.Providers)),
		Tiers:               make(map[string]domain.CustomerTier, len(s.Tiers)),
		Segments:            make(map[string]domain.PricingSegment, len(s.Segments)),
		AmountTiers:         append([]domain.AmountTier(nil), s.AmountTiers...),
		Categories:          append([]domain.CurrencyCategory(nil), s.Categories...),
		CBDCs:               make(map[string]domain.CBDC, len(s.CBDCs)),
		Stablecoins:         make(map[string]domain.Stablecoin, len(s.Stablecoins)),
		Ramps:               append([]domain.Ramp(nil), s.Ramps...),
		AtomicSwaps:         append([]domain.AtomicSwapPair(nil), s.AtomicSwaps...),
		NexusFiats:          make(map[string]bool, len(s.NexusFiats)),
		NegotiatedDiscounts: make(map[string]float64, len(s.NegotiatedDiscounts)),
	}
	for k, v := range s.Providers {
		next.Providers[k] = v
	}
	for k, v := range s.Tiers {
		next.Tiers[k] = v
	}
	for k, v := range s.Segments {
		next.Segments[k] = v
	}
	for k, v := range s.CBDCs {
		next.CBDCs[k] = v
	}
	for k, v := range s.Stablecoins {
		next.Stablecoins[k] = v
	}
	for k, v := range s.NexusFiats {
		next.NexusFiats[k] = v
	}
	for k, v := range s.NegotiatedDiscounts {
		next.NegotiatedDiscounts[k] = v
	}
	return next
}
