package normalize

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sportsdata/propline/internal/propline/domain"
)

// defaultBoostFactor is how far above the rolling baseline an over-multiplier
// must sit before a prop is reclassified as a promotional boost (spec §4.2:
// "materially above baseline", operator-tunable default of 1.3x).
const defaultBoostFactor = 1.3

// minBaselineSamples is how many observations a (sport, prop_category) bucket
// needs before IsBoost will fire; too few samples makes the baseline itself
// noise.
const minBaselineSamples = 5

// BaselineKey identifies the (sport, prop_category) bucket a baseline is tracked
// under.
type BaselineKey struct {
	Sport        domain.Sport
	PropCategory string
}

type baselineBucket struct {
	sum   decimal.Decimal
	count int64
}

// BaselineTracker maintains a running mean of over-multipliers per
// (sport, prop_category) so the Normalizer can flag outlier payouts as boosts.
// It is a plain running mean rather than a windowed one: observations never
// expire, and the Orchestrator neither rebuilds nor resets the tracker, so the
// mean covers every observation since the tracker was created.
type BaselineTracker struct {
	mu          sync.Mutex
	boostFactor decimal.Decimal
	buckets     map[BaselineKey]*baselineBucket
}

// NewBaselineTracker returns an empty tracker using defaultBoostFactor.
func NewBaselineTracker() *BaselineTracker {
	return NewBaselineTrackerWithFactor(defaultBoostFactor)
}

// NewBaselineTrackerWithFactor returns an empty tracker using a caller-chosen
// boost factor (spec §9: baseline multiplier is operator-tunable).
func NewBaselineTrackerWithFactor(factor float64) *BaselineTracker {
	return &BaselineTracker{
		boostFactor: decimal.NewFromFloat(factor),
		buckets:     make(map[BaselineKey]*baselineBucket),
	}
}

// IsBoost reports whether mult sits at or above the tracker's boost factor
// times the bucket's current mean. Buckets with fewer than
// minBaselineSamples observations never report a boost — there isn't enough
// signal yet to distinguish a boost from ordinary variance.
func (t *BaselineTracker) IsBoost(key BaselineKey, mult decimal.Decimal) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[key]
	if !ok || b.count < minBaselineSamples {
		return false
	}

	mean := b.sum.Div(decimal.NewFromInt(b.count))
	threshold := mean.Mul(t.boostFactor)
	return mult.GreaterThanOrEqual(threshold)
}

// Observe folds mult into key's running mean.
func (t *BaselineTracker) Observe(key BaselineKey, mult decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[key]
	if !ok {
		b = &baselineBucket{}
		t.buckets[key] = b
	}
	b.sum = b.sum.Add(mult)
	b.count++
}

// Reset clears all tracked buckets, ready for a new ingestion cycle.
func (t *BaselineTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buckets = make(map[BaselineKey]*baselineBucket)
}
