// Package dedupe implements the Deduplicator & Upserter (spec §4.5): the
// single writer of CanonicalProps into the Cache Manager, responsible for
// turning repeated observations of the same line_hash into Inserted,
// Updated, or Duplicate results instead of blind overwrites.
package dedupe

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/sportsdata/propline/internal/propline/cache"
	"github.com/sportsdata/propline/internal/propline/domain"
)

// Result is the outcome of a single Upsert call.
type Result string

const (
	ResultInserted  Result = "INSERTED"
	ResultUpdated   Result = "UPDATED"
	ResultDuplicate Result = "DUPLICATE"
)

// shardCount is the number of per-hash lock shards (spec §5: "for a given
// line_hash, Upserter serializes writes... concurrent Put calls for the
// same hash are linearized").
const shardCount = 64

// TTLPolicy returns the cache TTL to apply for a prop, based on its game
// status (spec §3 Lifecycle: "default 60-180s for live odds, 1h for static
// context").
type TTLPolicy func(domain.CanonicalProp) time.Duration

// DefaultTTLPolicy implements the lifecycle default: 120s for LIVE, 1h
// otherwise.
func DefaultTTLPolicy(p domain.CanonicalProp) time.Duration {
	if p.GameStatus == domain.GameLive {
		return 120 * time.Second
	}
	return time.Hour
}

// Upserter serializes writes per line_hash and classifies each write as
// Inserted, Updated, or Duplicate against the Cache Manager's current state.
type Upserter struct {
	cache  *cache.Manager
	ttl    TTLPolicy
	shards [shardCount]sync.Mutex
}

// New builds an Upserter over mgr. A nil ttl uses DefaultTTLPolicy.
func New(mgr *cache.Manager, ttl TTLPolicy) *Upserter {
	if ttl == nil {
		ttl = DefaultTTLPolicy
	}
	return &Upserter{cache: mgr, ttl: ttl}
}

// Upsert implements the §4.5 contract. Line or payout changes never update
// an existing hash entry in place — a different hash is a different
// entity — so "Updated" only ever means "same hash, newer updated_ts, and
// game-state fields that differ from the cached entry" (see
// sameCanonicalFields). Identical fields, or differing fields with an older
// or equal updated_ts, report Duplicate.
func (u *Upserter) Upsert(ctx context.Context, prop domain.CanonicalProp) Result {
	shard := &u.shards[shardIndex(prop.LineHash)]
	shard.Lock()
	defer shard.Unlock()

	existing, ok := u.cache.Get(ctx, prop.LineHash)
	ttl := u.ttl(prop)

	if !ok {
		u.cache.Put(prop, ttl)
		return ResultInserted
	}

	if sameCanonicalFields(existing, prop) {
		// Duplicate: refresh TTL only, don't disturb ingested_ts/identity.
		existing.GameStatus = prop.GameStatus
		existing.GameStartTS = prop.GameStartTS
		u.cache.Put(existing, ttl)
		return ResultDuplicate
	}

	if prop.UpdatedTS.After(existing.UpdatedTS) {
		u.cache.Put(prop, ttl)
		return ResultUpdated
	}

	// Stale re-delivery of an already-superseded observation: treat as a
	// duplicate rather than regressing the cached entry.
	return ResultDuplicate
}

// sameCanonicalFields reports whether two props carrying the same line_hash
// also agree on the rest of the canonical record a client would observe —
// the hash alone guarantees payout/line equality, but game-state fields can
// still legitimately change between observations.
func sameCanonicalFields(a, b domain.CanonicalProp) bool {
	return a.GameStatus == b.GameStatus &&
		a.GameStartTS.Equal(b.GameStartTS) &&
		a.PlayerName == b.PlayerName &&
		a.TeamCode == b.TeamCode
}

// UpsertBatch processes props in line_hash order, per spec §4.5's cycle
// ordering invariant, and returns one Result per input element in the same
// order as the (now-sorted) input.
func (u *Upserter) UpsertBatch(ctx context.Context, props []domain.CanonicalProp) []Result {
	sorted := sortedByHash(props)
	results := make([]Result, len(sorted))
	for i, p := range sorted {
		results[i] = u.Upsert(ctx, p)
	}
	return results
}

func sortedByHash(props []domain.CanonicalProp) []domain.CanonicalProp {
	out := make([]domain.CanonicalProp, len(props))
	copy(out, props)
	sort.Slice(out, func(i, j int) bool { return out[i].LineHash < out[j].LineHash })
	return out
}

func shardIndex(hash string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(hash))
	return h.Sum32() % shardCount
}
