package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fintaar/crossrail/internal/domain"
)

// entry is one cached rate with its fetch stamp.
type entry struct {
	Rate      domain.TreasuryRate `json:"rate"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// store is the cache backend. The in-process map is the default; a
// Redis backend shares the cache across instances.
type store interface {
	get(ctx context.Context, pair string) (entry, bool)
	put(ctx context.Context, pair string, e entry)
}

// Options tune the cached source.
type Options struct {
	TTL          time.Duration // freshness window
	StaleFor     time.Duration // stale entries remain usable this long
	FetchTimeout time.Duration // per-fetch bound
	RefreshRPS   float64       // upstream refresh budget
}

func (o *Options) fill() {
	if o.TTL <= 0 {
		o.TTL = 5 * time.Second
	}
	if o.StaleFor < o.TTL {
		o.StaleFor = 30 * time.Second
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 2 * time.Second
	}
	if o.RefreshRPS <= 0 {
		o.RefreshRPS = 10
	}
}

// CachedSource fronts a Source with a TTL cache, a token-bucket refresh
// limiter and a circuit breaker. On fetch failure it serves a stale
// entry (up to StaleFor old) marked INDICATIVE.
type CachedSource struct {
	upstream Source
	cache    store
	opts     Options
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
}

// NewCachedSource builds a cached source with the in-process backend.
func NewCachedSource(upstream Source, opts Options) *CachedSource {
	return newCached(upstream, newMemoryStore(), opts)
}

// NewCachedSourceWithStore builds a cached source over a custom backend.
func NewCachedSourceWithStore(upstream Source, backend store, opts Options) *CachedSource {
	return newCached(upstream, backend, opts)
}

func newCached(upstream Source, backend store, opts Options) *CachedSource {
	opts.fill()
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rate-source",
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state change")
		},
	})
	return &CachedSource{
		upstream: upstream,
		cache:    backend,
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Limit(opts.RefreshRPS), int(opts.RefreshRPS)+1),
		breaker:  cb,
	}
}

// Get resolves a pair. The returned RateType is FIRM for a fresh rate
// and INDICATIVE when a stale cache entry had to stand in.
func (c *CachedSource) Get(ctx context.Context, pair string) (domain.TreasuryRate, domain.RateType, error) {
	now := time.Now()
	cached, hit := c.cache.get(ctx, pair)
	if hit && now.Sub(cached.FetchedAt) < c.opts.TTL {
		return cached.Rate, domain.RateFirm, nil
	}

	fresh, err := c.fetch(ctx, pair)
	if err == nil {
		c.cache.put(ctx, pair, entry{Rate: fresh, FetchedAt: now})
		return fresh, domain.RateFirm, nil
	}

	var unavailable *domain.RateUnavailableError
	if errors.As(err, &unavailable) {
		return domain.TreasuryRate{}, "", err
	}
	if hit && now.Sub(cached.FetchedAt) <= c.opts.StaleFor {
		log.Warn().Str("pair", pair).Err(err).Msg("serving stale rate")
		return cached.Rate, domain.RateIndicative, nil
	}
	return domain.TreasuryRate{}, "", &domain.RateUnavailableError{Pair: pair}
}

// Snapshot passes through to the upstream and refreshes the cache for
// every returned pair.
func (c *CachedSource) Snapshot(ctx context.Context) ([]domain.TreasuryRate, error) {
	snap, err := c.upstream.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("rate snapshot: %w", err)
	}
	now := time.Now()
	for _, r := range snap {
		c.cache.put(ctx, r.Pair, entry{Rate: r, FetchedAt: now})
	}
	return snap, nil
}

func (c *CachedSource) fetch(ctx context.Context, pair string) (domain.TreasuryRate, error) {
	if !c.limiter.Allow() {
		return domain.TreasuryRate{}, fmt.Errorf("rate refresh budget exhausted")
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
		defer cancel()
		return c.upstream.Fetch(fctx, pair)
	})
	if err != nil {
		return domain.TreasuryRate{}, err
	}
	return out.(domain.TreasuryRate), nil
}
