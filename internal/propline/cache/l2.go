package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sportsdata/propline/internal/propline/domain"
)

// L2 is the cross-process coherence tier (spec §4.6). It is optional: every
// method degrades to a no-op/miss when no Redis client is configured, so
// callers never need to special-case an absent L2.
type L2 struct {
	client *redis.Client
}

// NewL2 wraps an existing *redis.Client. Pass nil to build a disabled L2
// (every Get misses, every Put/Invalidate is a no-op) for environments
// without a Redis deployment.
func NewL2(client *redis.Client) *L2 {
	return &L2{client: client}
}

func (l *L2) enabled() bool { return l.client != nil }

// Get returns the cached prop for hash from the shared tier, if present.
func (l *L2) Get(ctx context.Context, hash string) (domain.CanonicalProp, bool) {
	if !l.enabled() {
		return domain.CanonicalProp{}, false
	}
	cctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	raw, err := l.client.Get(cctx, redisKey(hash)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("line_hash", hash).Msg("L2 cache get failed")
		}
		return domain.CanonicalProp{}, false
	}
	var prop domain.CanonicalProp
	if err := json.Unmarshal(raw, &prop); err != nil {
		log.Warn().Err(err).Str("line_hash", hash).Msg("L2 cache payload decode failed")
		return domain.CanonicalProp{}, false
	}
	return prop, true
}

// PutAsync write-behind's prop to L2 with ttl. Errors are logged, never
// surfaced — spec §4.6: "L2 write is best-effort (async, errors logged, not
// surfaced)". Safe to call with a disabled L2.
func (l *L2) PutAsync(prop domain.CanonicalProp, ttl time.Duration) {
	if !l.enabled() {
		return
	}
	go func() {
		raw, err := json.Marshal(prop)
		if err != nil {
			log.Warn().Err(err).Str("line_hash", prop.LineHash).Msg("L2 cache payload encode failed")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.client.Set(ctx, redisKey(prop.LineHash), raw, ttl).Err(); err != nil {
			log.Warn().Err(err).Str("line_hash", prop.LineHash).Msg("L2 cache put failed")
		}
	}()
}

// Invalidate deletes hash from L2. Failures are logged; the caller (Manager)
// is responsible for the retry-enqueue behavior spec §4.6 calls for.
func (l *L2) Invalidate(ctx context.Context, hash string) error {
	if !l.enabled() {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return l.client.Del(cctx, redisKey(hash)).Err()
}

func redisKey(hash string) string { return "propline:prop:" + hash }
