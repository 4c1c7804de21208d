package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintaar/crossrail/internal/domain"
)

// flakySource fails every Fetch once failing is set.
type flakySource struct {
	mu      sync.Mutex
	inner   *StaticSource
	failing bool
	fetches int
}

func (f *flakySource) Fetch(ctx context.Context, pair string) (domain.TreasuryRate, error) {
	f.mu.Lock()
	f.fetches++
	failing := f.failing
	f.mu.Unlock()
	if failing {
		return domain.TreasuryRate{}, fmt.Errorf("upstream down")
	}
	return f.inner.Fetch(ctx, pair)
}

func (f *flakySource) Snapshot(ctx context.Context) ([]domain.TreasuryRate, error) {
	return f.inner.Snapshot(ctx)
}

func (f *flakySource) setFailing(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func TestCachedSourceFreshHitIsFirm(t *testing.T) {
	up := &flakySource{inner: NewStaticSource(nil)}
	c := NewCachedSource(up, Options{TTL: time.Minute, StaleFor: time.Hour})

	r1, kind, err := c.Get(context.Background(), "USDINR")
	require.NoError(t, err)
	assert.Equal(t, domain.RateFirm, kind)

	// second read is served from cache without touching the upstream
	before := up.fetches
	r2, kind, err := c.Get(context.Background(), "USDINR")
	require.NoError(t, err)
	assert.Equal(t, domain.RateFirm, kind)
	assert.Equal(t, r1.Mid, r2.Mid)
	assert.Equal(t, before, up.fetches)
}

func TestCachedSourceStaleFallbackIsIndicative(t *testing.T) {
	up := &flakySource{inner: NewStaticSource(nil)}
	c := NewCachedSource(up, Options{TTL: 10 * time.Millisecond, StaleFor: time.Hour})

	_, _, err := c.Get(context.Background(), "USDINR")
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)
	up.setFailing(true)

	r, kind, err := c.Get(context.Background(), "USDINR")
	require.NoError(t, err)
	assert.Equal(t, domain.RateIndicative, kind, "stale cache entry stands in as indicative")
	assert.Equal(t, 84.50, r.Mid)
}

func TestCachedSourceUnknownPairIsNotMasked(t *testing.T) {
	up := &flakySource{inner: NewStaticSource(nil)}
	c := NewCachedSource(up, Options{TTL: time.Minute, StaleFor: time.Hour})

	_, _, err := c.Get(context.Background(), "XAUXAG")
	var unavailable *domain.RateUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestCachedSourceMissWithDeadUpstream(t *testing.T) {
	up := &flakySource{inner: NewStaticSource(nil)}
	up.setFailing(true)
	c := NewCachedSource(up, Options{TTL: time.Minute, StaleFor: time.Hour})

	_, _, err := c.Get(context.Background(), "USDINR")
	var unavailable *domain.RateUnavailableError
	require.ErrorAs(t, err, &unavailable, "no cache entry and no upstream means RateUnavailable")
}

func TestSnapshotPrimesCache(t *testing.T) {
	up := &flakySource{inner: NewStaticSource(nil)}
	c := NewCachedSource(up, Options{TTL: time.Minute, StaleFor: time.Hour})

	_, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	up.setFailing(true)
	r, kind, err := c.Get(context.Background(), "USDSGD")
	require.NoError(t, err)
	assert.Equal(t, domain.RateFirm, kind)
	assert.Equal(t, 1.3400, r.Mid)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, time.Minute)

	e := entry{
		Rate:      domain.TreasuryRate{Pair: "USDINR", Bid: 84.42, Mid: 84.50, Ask: 84.58, Position: domain.PositionLong},
		FetchedAt: time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(e)
	require.NoError(t, err)

	mock.ExpectSet("crossrail:rate:USDINR", raw, time.Minute).SetVal("OK")
	store.put(context.Background(), "USDINR", e)

	mock.ExpectGet("crossrail:rate:USDINR").SetVal(string(raw))
	got, ok := store.get(context.Background(), "USDINR")
	require.True(t, ok)
	assert.Equal(t, e.Rate.Mid, got.Rate.Mid)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreMissAndCorrupt(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, time.Minute)

	mock.ExpectGet("crossrail:rate:EURUSD").RedisNil()
	_, ok := store.get(context.Background(), "EURUSD")
	assert.False(t, ok)

	mock.ExpectGet("crossrail:rate:EURUSD").SetVal("{corrupt")
	_, ok = store.get(context.Background(), "EURUSD")
	assert.False(t, ok, "corrupt entries degrade to a miss")
}
