package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsdata/propline/internal/propline/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	l1 := NewL1(100)
	t.Cleanup(l1.Close)
	return NewManager(l1, NewL2(nil))
}

func sampleProp(hash string, sport domain.Sport, propType domain.PropType, status domain.GameStatus) domain.CanonicalProp {
	return domain.CanonicalProp{
		LineHash:   hash,
		Sport:      sport,
		PropType:   propType,
		GameStatus: status,
		GameID:     "game-1",
		IngestedTS: time.Now(),
	}
}

func TestManager_PutGet_RoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	prop := sampleProp("hash-a", domain.SportMLB, domain.PropHits, domain.GameScheduled)

	mgr.Put(prop, time.Minute)
	got, ok := mgr.Get(context.Background(), "hash-a")
	require.True(t, ok)
	assert.Equal(t, prop.LineHash, got.LineHash)
}

func TestManager_Get_Miss(t *testing.T) {
	mgr := newTestManager(t)
	_, ok := mgr.Get(context.Background(), "does-not-exist")
	assert.False(t, ok)
}

func TestManager_Invalidate(t *testing.T) {
	mgr := newTestManager(t)
	prop := sampleProp("hash-b", domain.SportMLB, domain.PropHits, domain.GameScheduled)
	mgr.Put(prop, time.Minute)

	mgr.Invalidate(context.Background(), "hash-b")
	_, ok := mgr.Get(context.Background(), "hash-b")
	assert.False(t, ok)
}

func TestManager_Query_FiltersNonScheduledByDefault(t *testing.T) {
	mgr := newTestManager(t)
	mgr.Put(sampleProp("live", domain.SportMLB, domain.PropHits, domain.GameLive), time.Minute)
	mgr.Put(sampleProp("scheduled", domain.SportMLB, domain.PropHits, domain.GameScheduled), time.Minute)

	props, total := mgr.Query(domain.SportMLB, QueryFilters{}, 1, 50)
	require.Equal(t, 1, total)
	assert.Equal(t, "scheduled", props[0].LineHash)
}

func TestManager_Query_IncludeAll(t *testing.T) {
	mgr := newTestManager(t)
	mgr.Put(sampleProp("live", domain.SportMLB, domain.PropHits, domain.GameLive), time.Minute)
	mgr.Put(sampleProp("scheduled", domain.SportMLB, domain.PropHits, domain.GameScheduled), time.Minute)

	_, total := mgr.Query(domain.SportMLB, QueryFilters{IncludeAll: true}, 1, 50)
	assert.Equal(t, 2, total)
}

func TestManager_Query_PropTypeFilter(t *testing.T) {
	mgr := newTestManager(t)
	mgr.Put(sampleProp("hits", domain.SportMLB, domain.PropHits, domain.GameScheduled), time.Minute)
	mgr.Put(sampleProp("hrs", domain.SportMLB, domain.PropHomeRuns, domain.GameScheduled), time.Minute)

	props, total := mgr.Query(domain.SportMLB, QueryFilters{PropTypes: []domain.PropType{domain.PropHomeRuns}}, 1, 50)
	require.Equal(t, 1, total)
	assert.Equal(t, "hrs", props[0].LineHash)
}

func TestManager_Query_ExcludesUnknownPropTypeByDefault(t *testing.T) {
	mgr := newTestManager(t)
	mgr.Put(sampleProp("hits", domain.SportMLB, domain.PropHits, domain.GameScheduled), time.Minute)
	mgr.Put(sampleProp("unmapped", domain.SportMLB, domain.PropTypeUnknown, domain.GameScheduled), time.Minute)

	props, total := mgr.Query(domain.SportMLB, QueryFilters{}, 1, 50)
	require.Equal(t, 1, total)
	assert.Equal(t, "hits", props[0].LineHash)

	allProps, allTotal := mgr.Query(domain.SportMLB, QueryFilters{IncludeUnknownPropType: true}, 1, 50)
	require.Equal(t, 2, allTotal)
	hashes := []string{allProps[0].LineHash, allProps[1].LineHash}
	assert.ElementsMatch(t, []string{"hits", "unmapped"}, hashes)

	explicit, explicitTotal := mgr.Query(domain.SportMLB, QueryFilters{PropTypes: []domain.PropType{domain.PropTypeUnknown}}, 1, 50)
	require.Equal(t, 1, explicitTotal)
	assert.Equal(t, "unmapped", explicit[0].LineHash)
}

func TestManager_Query_Pagination(t *testing.T) {
	mgr := newTestManager(t)
	for i := 0; i < 5; i++ {
		hash := string(rune('a' + i))
		mgr.Put(sampleProp(hash, domain.SportNBA, domain.PropPoints, domain.GameScheduled), time.Minute)
	}

	page1, total := mgr.Query(domain.SportNBA, QueryFilters{}, 1, 2)
	require.Equal(t, 5, total)
	assert.Len(t, page1, 2)

	page3, _ := mgr.Query(domain.SportNBA, QueryFilters{}, 3, 2)
	assert.Len(t, page3, 1)

	pageOOB, _ := mgr.Query(domain.SportNBA, QueryFilters{}, 10, 2)
	assert.Empty(t, pageOOB)
}

func TestL1_EvictsAtCapacity(t *testing.T) {
	l1 := NewL1(2)
	defer l1.Close()

	l1.Put(sampleProp("a", domain.SportMLB, domain.PropHits, domain.GameScheduled), time.Minute)
	l1.Put(sampleProp("b", domain.SportMLB, domain.PropHits, domain.GameScheduled), time.Minute)
	l1.Put(sampleProp("c", domain.SportMLB, domain.PropHits, domain.GameScheduled), time.Minute)

	stats := l1.Stats()
	assert.LessOrEqual(t, stats.Entries, 2)
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestL1_InvalidateByGame(t *testing.T) {
	l1 := NewL1(10)
	defer l1.Close()

	p := sampleProp("a", domain.SportMLB, domain.PropHits, domain.GameScheduled)
	p.GameID = "g1"
	l1.Put(p, time.Minute)

	l1.InvalidateByGame("g1")
	_, ok := l1.Get("a")
	assert.False(t, ok)
}
