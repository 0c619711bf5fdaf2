package taxonomy

import (
	"sync"

	"github.com/sportsdata/propline/internal/propline/domain"
)

// Miss is a single unrecognized prop-category observation, kept for operator
// curation of the taxonomy tables (spec §4.3: "records the miss for operator
// review").
type Miss struct {
	ProviderID  string
	Sport       domain.Sport
	RawCategory string
	Count       int
}

// MissRecorder accumulates taxonomy misses keyed by (provider, sport, raw
// category) so repeated misses on the same unmapped category don't flood a
// log sink — each distinct miss is counted, not repeated per-occurrence.
type MissRecorder struct {
	mu     sync.Mutex
	counts map[Miss]int
}

// NewMissRecorder returns an empty recorder.
func NewMissRecorder() *MissRecorder {
	return &MissRecorder{counts: make(map[Miss]int)}
}

// Record folds in one more occurrence of a taxonomy miss.
func (r *MissRecorder) Record(m Miss) {
	key := Miss{ProviderID: m.ProviderID, Sport: m.Sport, RawCategory: m.RawCategory}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[key]++
}

// Snapshot returns every distinct miss observed so far with its occurrence
// count, for an admin endpoint or periodic log line. It does not clear the
// recorder.
func (r *MissRecorder) Snapshot() []Miss {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Miss, 0, len(r.counts))
	for k, c := range r.counts {
		out = append(out, Miss{ProviderID: k.ProviderID, Sport: k.Sport, RawCategory: k.RawCategory, Count: c})
	}
	return out
}
