package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sportsdata/propline/internal/propline/domain"
	"github.com/sportsdata/propline/internal/propline/taxonomy"
)

// QueryFilters narrows a Query call (spec §4.8's ListProps selection
// parameters, minus pagination which Manager.Query takes separately).
type QueryFilters struct {
	PropTypes                   []domain.PropType // empty = all
	IncludeAll                  bool              // include non-SCHEDULED props; default false
	PlayerPosition              string            // "" = no position filter
	IncludePositionIncompatible bool              // skip the position-consistency check; default false
	IncludeUnknownPropType      bool              // include PropTypeUnknown props; default false
}

// Manager composes L1 and L2 per spec §4.6: L1 is authoritative, L2 is an
// optimistic shared cache written through asynchronously and read through
// on L1 miss.
type Manager struct {
	l1 *L1
	l2 *L2

	retryMu    sync.Mutex
	retryQueue []string
}

// NewManager builds a Manager over the given tiers.
func NewManager(l1 *L1, l2 *L2) *Manager {
	return &Manager{l1: l1, l2: l2}
}

// Get implements §4.6: L1 first, L2 on miss, populate L1 on L2 hit.
func (m *Manager) Get(ctx context.Context, hash string) (domain.CanonicalProp, bool) {
	if prop, ok := m.l1.Get(hash); ok {
		return prop, true
	}
	if prop, ok := m.l2.Get(ctx, hash); ok {
		m.l1.Put(prop, defaultRehydrateTTL)
		return prop, true
	}
	return domain.CanonicalProp{}, false
}

// defaultRehydrateTTL is applied when a prop is pulled back from L2 into L1
// without the original TTL context; it is intentionally short so a stale L2
// entry doesn't linger past its usefulness in L1.
const defaultRehydrateTTL = 60 * time.Second

// Put writes through to L1 synchronously and to L2 asynchronously
// (best-effort, per §4.6).
func (m *Manager) Put(prop domain.CanonicalProp, ttl time.Duration) {
	m.l1.Put(prop, ttl)
	m.l2.PutAsync(prop, ttl)
}

// Invalidate removes hash from both tiers; an L2 failure is queued for
// retry rather than surfaced (§4.6).
func (m *Manager) Invalidate(ctx context.Context, hash string) {
	m.l1.Invalidate(hash)
	if err := m.l2.Invalidate(ctx, hash); err != nil {
		m.enqueueRetry(hash)
	}
}

// InvalidateBySport removes every L1 entry for sport. L2 has no secondary
// sport index, so only L1 is touched; L2 entries simply expire on their own
// TTL, which is acceptable because L2 is never the source of truth.
func (m *Manager) InvalidateBySport(sport domain.Sport) {
	m.l1.InvalidateBySport(sport)
}

// InvalidateByGame removes every L1 entry for gameID.
func (m *Manager) InvalidateByGame(gameID string) {
	m.l1.InvalidateByGame(gameID)
}

func (m *Manager) enqueueRetry(hash string) {
	m.retryMu.Lock()
	defer m.retryMu.Unlock()
	m.retryQueue = append(m.retryQueue, hash)
}

// DrainRetries attempts each queued L2 invalidation once more. Nothing in
// the pipeline calls it on a schedule; queued invalidations are retried only
// when a caller invokes it.
func (m *Manager) DrainRetries(ctx context.Context) {
	m.retryMu.Lock()
	pending := m.retryQueue
	m.retryQueue = nil
	m.retryMu.Unlock()

	for _, hash := range pending {
		if err := m.l2.Invalidate(ctx, hash); err != nil {
			log.Warn().Err(err).Str("line_hash", hash).Msg("L2 invalidate retry failed again")
			m.enqueueRetry(hash)
		}
	}
}

// Query implements §4.8's ListProps read path over L1: sport match, then
// game_status == SCHEDULED unless filters.IncludeAll, then prop_type in the
// selected set, then position-consistency (skipped when
// filters.IncludePositionIncompatible is set), then an optional exact
// position match, then pagination. Results are sorted by line_hash for a
// stable page boundary across calls within a cycle.
func (m *Manager) Query(sport domain.Sport, filters QueryFilters, page, size int) (props []domain.CanonicalProp, total int) {
	if size <= 0 {
		size = 50
	}
	if size > 200 {
		size = 200
	}
	if page < 1 {
		page = 1
	}

	wantTypes := make(map[domain.PropType]struct{}, len(filters.PropTypes))
	for _, t := range filters.PropTypes {
		wantTypes[t] = struct{}{}
	}

	_, explicitlyWantsUnknown := wantTypes[domain.PropTypeUnknown]

	var matched []domain.CanonicalProp
	m.l1.Scan(sport, func(p domain.CanonicalProp) bool {
		if !filters.IncludeAll && p.GameStatus != domain.GameScheduled {
			return true
		}
		// §4.3/§7/Scenario E: a taxonomy-miss prop is ingested with
		// PropType = UNKNOWN but stays off the default query surface
		// until the mapping is curated, unless the caller explicitly
		// asks for it (either via IncludeUnknownPropType or by naming
		// UNKNOWN in prop_types).
		if p.PropType == domain.PropTypeUnknown && !filters.IncludeUnknownPropType && !explicitlyWantsUnknown {
			return true
		}
		if len(wantTypes) > 0 {
			if _, ok := wantTypes[p.PropType]; !ok {
				return true
			}
		}
		if !filters.IncludePositionIncompatible && !taxonomy.IsPositionCompatible(p.Sport, p.Position, p.PropType) {
			return true
		}
		if filters.PlayerPosition != "" && p.Position != filters.PlayerPosition {
			return true
		}
		matched = append(matched, p)
		return true
	})

	sort.Slice(matched, func(i, j int) bool { return matched[i].LineHash < matched[j].LineHash })

	total = len(matched)
	start := (page - 1) * size
	if start >= total {
		return nil, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total
}
