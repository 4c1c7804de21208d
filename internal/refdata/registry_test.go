package refdata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintaar/crossrail/internal/domain"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New("")
	require.NoError(t, err)
	return r
}

func TestDefaultsAreComplete(t *testing.T) {
	snap := newTestRegistry(t).Snapshot()

	assert.Contains(t, snap.Providers, "TREASURY_INTERNAL")
	assert.Contains(t, snap.Providers, "WISE")
	assert.Len(t, snap.Tiers, 5)
	assert.Len(t, snap.Segments, 6)
	assert.Len(t, snap.AmountTiers, 6)
	assert.Len(t, snap.Categories, 4)
	assert.Contains(t, snap.CBDCs, "e-CNY")
	assert.Contains(t, snap.Stablecoins, "USDC")
}

func TestAmountTierBoundaries(t *testing.T) {
	snap := newTestRegistry(t).Snapshot()

	assert.Equal(t, "TIER_1", snap.AmountTierFor(0).ID)
	assert.Equal(t, "TIER_1", snap.AmountTierFor(9_999.99).ID)
	assert.Equal(t, "TIER_2", snap.AmountTierFor(10_000).ID, "tier max belongs to the next tier")
	assert.Equal(t, "TIER_4", snap.AmountTierFor(100_000).ID)
	assert.Equal(t, "TIER_6", snap.AmountTierFor(25_000_000).ID)
}

func TestRailClassification(t *testing.T) {
	snap := newTestRegistry(t).Snapshot()

	rail, ok := snap.RailOf("e-INR")
	require.True(t, ok)
	assert.Equal(t, domain.RailCBDC, rail)

	rail, ok = snap.RailOf("USDC")
	require.True(t, ok)
	assert.Equal(t, domain.RailStablecoin, rail)

	rail, ok = snap.RailOf("USD")
	require.True(t, ok)
	assert.Equal(t, domain.RailFiat, rail)

	_, ok = snap.RailOf("XYZ")
	assert.False(t, ok)
}

func TestCategoryOfUnknownIsExotic(t *testing.T) {
	snap := newTestRegistry(t).Snapshot()
	assert.Equal(t, domain.CategoryRestricted, snap.CategoryOf("INR").ID)
	assert.Equal(t, domain.CategoryExotic, snap.CategoryOf("XAU").ID)
}

func TestCheapestRamp(t *testing.T) {
	snap := newTestRegistry(t).Snapshot()
	ramp, ok := snap.CheapestRamp("USDC", domain.RampOn)
	require.True(t, ok)
	assert.Equal(t, "CIRCLE", ramp.ID)
	assert.Equal(t, 0.0, ramp.FeeBps)

	_, ok = snap.CheapestRamp("DOGE", domain.RampOn)
	assert.False(t, ok)
}

func TestProviderCreateConflictAndDelete(t *testing.T) {
	r := newTestRegistry(t)

	err := r.CreateProvider(domain.Provider{ID: "TREASURY_INTERNAL"})
	var conflict *domain.ReferenceDataConflictError
	require.ErrorAs(t, err, &conflict)

	p := domain.Provider{ID: "REVOLUT", Name: "Revolut", Type: domain.ProviderFintech, Reliability: 0.9, IsActive: true}
	require.NoError(t, r.CreateProvider(p))
	got, ok := r.Snapshot().Provider("REVOLUT")
	require.True(t, ok)
	assert.Equal(t, "Revolut", got.Name)

	// active providers cannot be deleted
	require.ErrorAs(t, r.DeleteProvider("REVOLUT"), &conflict)

	p.IsActive = false
	snap := r.Snapshot().clone()
	snap.Providers["REVOLUT"] = p
	r.snap.Store(snap)
	require.NoError(t, r.DeleteProvider("REVOLUT"))
	_, ok = r.Snapshot().Provider("REVOLUT")
	assert.False(t, ok)
}

func TestSnapshotIsolation(t *testing.T) {
	r := newTestRegistry(t)
	before := r.Snapshot()
	require.NoError(t, r.CreateProvider(domain.Provider{ID: "NEWPROV", IsActive: true}))

	_, inOld := before.Provider("NEWPROV")
	assert.False(t, inOld, "held snapshots never see later writes")
	_, inNew := r.Snapshot().Provider("NEWPROV")
	assert.True(t, inNew)
}

func TestOverlayDirReplacesTable(t *testing.T) {
	dir := t.TempDir()
	providers := []domain.Provider{{ID: "ONLY_ONE", Name: "Only One", Type: domain.ProviderFintech, Reliability: 0.9, SupportedPairs: []string{"*"}, IsActive: true}}
	raw, err := json.Marshal(providers)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "providers.json"), raw, 0o644))

	r, err := New(dir)
	require.NoError(t, err)
	snap := r.Snapshot()
	assert.Len(t, snap.Providers, 1)
	assert.Contains(t, snap.Providers, "ONLY_ONE")
	// tables without an overlay keep defaults
	assert.Len(t, snap.Tiers, 5)
}

func TestOverlayDirMalformedFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "providers.json"), []byte("{not json"), 0o644))
	_, err := New(dir)
	assert.Error(t, err)
}
