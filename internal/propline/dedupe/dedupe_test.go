package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsdata/propline/internal/config"
	"github.com/sportsdata/propline/internal/propline/cache"
	"github.com/sportsdata/propline/internal/propline/domain"
	"github.com/sportsdata/propline/internal/propline/normalize"
	"github.com/sportsdata/propline/internal/propline/propmapper"
	"github.com/sportsdata/propline/internal/propline/taxonomy"
)

func newTestUpserter(t *testing.T) *Upserter {
	t.Helper()
	l1 := cache.NewL1(1000)
	t.Cleanup(l1.Close)
	mgr := cache.NewManager(l1, cache.NewL2(nil))
	return New(mgr, nil)
}

func baseProp(hash string, updated time.Time) domain.CanonicalProp {
	return domain.CanonicalProp{
		LineHash:    hash,
		Sport:       domain.SportMLB,
		PropType:    domain.PropHits,
		PlayerName:  "Player One",
		TeamCode:    "SF",
		GameStatus:  domain.GameScheduled,
		GameStartTS: time.Date(2026, 7, 30, 19, 0, 0, 0, time.UTC),
		UpdatedTS:   updated,
		IngestedTS:  updated,
	}
}

func TestUpsert_FirstWriteIsInserted(t *testing.T) {
	u := newTestUpserter(t)
	result := u.Upsert(context.Background(), baseProp("h1", time.Now()))
	assert.Equal(t, ResultInserted, result)
}

func TestUpsert_RepeatIdenticalIsDuplicate(t *testing.T) {
	u := newTestUpserter(t)
	ctx := context.Background()
	first := baseProp("h1", time.Now())

	require.Equal(t, ResultInserted, u.Upsert(ctx, first))
	second := first
	second.UpdatedTS = first.UpdatedTS.Add(time.Second)
	assert.Equal(t, ResultDuplicate, u.Upsert(ctx, second))
}

func TestUpsert_ChangedCanonicalFieldsWithNewerTimestampIsUpdated(t *testing.T) {
	u := newTestUpserter(t)
	ctx := context.Background()
	first := baseProp("h1", time.Now())
	require.Equal(t, ResultInserted, u.Upsert(ctx, first))

	changed := first
	changed.GameStatus = domain.GameLive
	changed.UpdatedTS = first.UpdatedTS.Add(time.Minute)
	assert.Equal(t, ResultUpdated, u.Upsert(ctx, changed))
}

func TestUpsert_StaleRedeliveryIsDuplicate(t *testing.T) {
	u := newTestUpserter(t)
	ctx := context.Background()
	now := time.Now()

	newer := baseProp("h1", now)
	newer.GameStatus = domain.GameLive
	require.Equal(t, ResultInserted, u.Upsert(ctx, newer))

	stale := baseProp("h1", now.Add(-time.Hour))
	stale.GameStatus = domain.GameScheduled
	assert.Equal(t, ResultDuplicate, u.Upsert(ctx, stale))
}

// TestUpsert_StaleProviderUpdatedTSIsDuplicateDespiteLaterIngestion exercises
// the real Map path (not hand-built CanonicalProps) to prove a genuinely
// stale redelivery — older provider updated_ts, merely observed later in
// wall-clock time — is dropped as a duplicate rather than classified
// Updated. Local ingestion time alone would get this backwards, since it
// only ever increases regardless of what the provider reports.
func TestUpsert_StaleProviderUpdatedTSIsDuplicateDespiteLaterIngestion(t *testing.T) {
	taxCfg := &config.TaxonomyConfig{
		GlobalMappings: []config.GlobalMappingEntry{
			{Sport: "NBA", PropCategory: "points", PropType: "POINTS"},
		},
		Teams: []config.TeamEntry{
			{Sport: "NBA", FullName: "San Francisco Giants", Code: "SF"},
		},
	}
	tax := taxonomy.NewService(taxCfg)
	teams := taxonomy.NewTeamResolver(taxCfg)

	ingestSeq := []time.Time{
		time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 30, 12, 5, 0, 0, time.UTC),
	}
	call := 0
	clock := func() time.Time {
		ts := ingestSeq[call]
		call++
		return ts
	}
	mapper := propmapper.New(tax, teams, normalize.NewNormalizer(nil), clock)
	u := newTestUpserter(t)
	ctx := context.Background()

	raw := domain.RawProp{
		ProviderID:   "prizepicks",
		TeamCode:     "SF",
		PropCategory: "points",
		LineValue:    5.5,
		Sport:        domain.SportNBA,
		OverOdds:     floatPtr(3.0),
		UnderOdds:    floatPtr(2.5),
		GameStatus:   domain.GameScheduled,
		UpdatedTS:    time.Date(2026, 7, 30, 11, 0, 0, 0, time.UTC),
	}
	first, err := mapper.Map(raw)
	require.NoError(t, err)
	require.Equal(t, ResultInserted, u.Upsert(ctx, first))

	// Redelivery: the canonical fields changed (game went LIVE) but the
	// provider reports an OLDER updated_ts than what's cached — only the
	// pipeline's own clock moved forward between the two ingests. This must
	// classify as Duplicate, not Updated: updated_ts, not ingestion time, is
	// the authority on ordering.
	staleRaw := raw
	staleRaw.GameStatus = domain.GameLive
	staleRaw.UpdatedTS = time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	second, err := mapper.Map(staleRaw)
	require.NoError(t, err)
	require.True(t, second.IngestedTS.After(first.IngestedTS), "sanity: ingestion clock moved forward")
	assert.Equal(t, ResultDuplicate, u.Upsert(ctx, second))
}

func floatPtr(f float64) *float64 { return &f }

func TestUpsertBatch_UnsortedInputAllInserted(t *testing.T) {
	u := newTestUpserter(t)
	now := time.Now()
	props := []domain.CanonicalProp{
		baseProp("zzz", now),
		baseProp("aaa", now),
		baseProp("mmm", now),
	}

	results := u.UpsertBatch(context.Background(), props)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, ResultInserted, r)
	}
}

func TestDefaultTTLPolicy(t *testing.T) {
	live := domain.CanonicalProp{GameStatus: domain.GameLive}
	assert.Equal(t, 120*time.Second, DefaultTTLPolicy(live))

	scheduled := domain.CanonicalProp{GameStatus: domain.GameScheduled}
	assert.Equal(t, time.Hour, DefaultTTLPolicy(scheduled))
}
