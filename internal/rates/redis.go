package rates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const redisKeyPrefix = "crossrail:rate:"

// RedisStore shares the rate cache across engine instances. Misses and
// backend errors degrade to a cache miss; the caller falls through to
// the upstream source.
type RedisStore struct {
	client  redis.UniversalClient
	expires time.Duration
}

// NewRedisStore wraps a Redis client as a cache backend. Entries expire
// server-side after staleFor so dead pairs do not accumulate.
func NewRedisStore(client redis.UniversalClient, staleFor time.Duration) *RedisStore {
	return &RedisStore{client: client, expires: staleFor}
}

func (r *RedisStore) get(ctx context.Context, pair string) (entry, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+pair).Bytes()
	if err == redis.Nil {
		return entry{}, false
	}
	if err != nil {
		log.Warn().Str("pair", pair).Err(err).Msg("redis rate cache read failed")
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		log.Warn().Str("pair", pair).Err(err).Msg("redis rate cache entry corrupt")
		return entry{}, false
	}
	return e, true
}

func (r *RedisStore) put(ctx context.Context, pair string, e entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+pair, raw, r.expires).Err(); err != nil {
		log.Warn().Str("pair", pair).Err(err).Msg("redis rate cache write failed")
	}
}
