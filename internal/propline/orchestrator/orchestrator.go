// Package orchestrator implements the Orchestrator (spec §4.7): per
// (sport, provider) cadence scheduling, fan-out of one goroutine per
// (sport, provider) pair, and the fetch -> map -> dedupe -> upsert pipeline
// composition, with backpressure against the Upserter and cooperative
// per-cycle cancellation. The fan-out has no global cap on concurrent
// provider requests: GlobalConfig.MaxInFlight is not read.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sportsdata/propline/internal/config"
	"github.com/sportsdata/propline/internal/propline/dedupe"
	"github.com/sportsdata/propline/internal/propline/domain"
	"github.com/sportsdata/propline/internal/propline/propmapper"
	"github.com/sportsdata/propline/internal/propline/providers"
)

// CycleState is the per-(sport, provider) cycle state machine (spec §4.7).
type CycleState string

const (
	CycleIdle          CycleState = "IDLE"
	CycleFetching      CycleState = "FETCHING"
	CycleMapping       CycleState = "MAPPING"
	CycleUpserting     CycleState = "UPSERTING"
	CycleCompleted     CycleState = "COMPLETED"
	CycleFailedPartial CycleState = "FAILED_PARTIAL"
)

// CycleReport summarizes one completed (sport, provider) cycle.
type CycleReport struct {
	Sport      domain.Sport
	ProviderID string
	State      CycleState
	Inserted   int
	Updated    int
	Duplicate  int
	MapErrors  int
	FetchErr   error
}

// pendingGauge reports the Upserter's current queue depth so the
// Orchestrator can throttle new fetches against the high/low water marks
// (spec §4.7). In this single-process design the "queue" is the number of
// raw props fetched by cycles that are still running (added after the fetch,
// removed when the cycle returns) rather than a literal channel depth.
type pendingGauge struct {
	mu      sync.Mutex
	pending int
}

func (g *pendingGauge) add(n int) {
	g.mu.Lock()
	g.pending += n
	g.mu.Unlock()
}

func (g *pendingGauge) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Orchestrator drives every registered provider's cadence loop.
type Orchestrator struct {
	registry *providers.Registry
	mapper   *propmapper.Mapper
	upserter *dedupe.Upserter
	cfg      config.GlobalConfig

	pairMu  sync.Map // (sport,provider) -> *sync.Mutex, prevents overlapping cycles
	pending pendingGauge
}

// New builds an Orchestrator over its collaborators.
func New(registry *providers.Registry, mapper *propmapper.Mapper, upserter *dedupe.Upserter, cfg config.GlobalConfig) *Orchestrator {
	return &Orchestrator{registry: registry, mapper: mapper, upserter: upserter, cfg: cfg}
}

// Run starts one cadence loop per (sport, provider) pair and blocks until
// ctx is cancelled. Each loop runs independently — cadences
// never synchronize across pairs, per §4.7.
func (o *Orchestrator) Run(ctx context.Context, sports []domain.Sport, cadence time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, rt := range o.registry.All() {
		rt := rt
		for _, sport := range sports {
			sport := sport
			g.Go(func() error {
				o.cadenceLoop(gctx, sport, rt, cadence)
				return nil
			})
		}
	}

	return g.Wait()
}

func (o *Orchestrator) cadenceLoop(ctx context.Context, sport domain.Sport, rt *providers.Runtime, cadence time.Duration) {
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	// Run once immediately, then on every tick.
	o.runCycle(ctx, sport, rt)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.runCycle(ctx, sport, rt)
		}
	}
}

// runCycle executes a single FETCHING -> MAPPING -> UPSERTING pass for one
// (sport, provider), guarded by a per-pair mutex so overlapping ticks never
// run concurrently.
func (o *Orchestrator) runCycle(ctx context.Context, sport domain.Sport, rt *providers.Runtime) CycleReport {
	pairKey := string(sport) + "|" + rt.ProviderID()
	muAny, _ := o.pairMu.LoadOrStore(pairKey, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	if !mu.TryLock() {
		// A previous cycle for this pair is still running; skip this tick
		// rather than queue, per §4.7's "no global lock... per-pair mutex".
		return CycleReport{Sport: sport, ProviderID: rt.ProviderID(), State: CycleIdle}
	}
	defer mu.Unlock()

	if o.pending.value() >= o.cfg.UpsertHighWater {
		log.Warn().Str("provider", rt.ProviderID()).Int("pending", o.pending.value()).
			Msg("throttling fetch: upserter queue above high-water mark")
		for o.pending.value() >= o.cfg.UpsertLowWater {
			select {
			case <-ctx.Done():
				return CycleReport{Sport: sport, ProviderID: rt.ProviderID(), State: CycleFailedPartial}
			case <-time.After(200 * time.Millisecond):
			}
		}
	}

	cctx, cancel := context.WithTimeout(ctx, o.cfg.CycleTimeout)
	defer cancel()

	report := CycleReport{Sport: sport, ProviderID: rt.ProviderID(), State: CycleFetching}

	games, err := rt.FetchScheduledGames(cctx, sport)
	if err != nil {
		report.State = CycleFailedPartial
		report.FetchErr = err
		log.Warn().Err(err).Str("provider", rt.ProviderID()).Str("sport", string(sport)).
			Msg("cycle fetch failed, cached data remains authoritative within TTL")
		return report
	}
	if len(games) == 0 {
		report.State = CycleCompleted
		return report
	}

	gameIDs := make([]string, len(games))
	for i, g := range games {
		gameIDs[i] = g.GameID
	}

	report.State = CycleMapping
	raws, err := rt.FetchProps(cctx, sport, gameIDs, providers.MarketPlayerProps)
	if err != nil {
		report.State = CycleFailedPartial
		report.FetchErr = err
		return report
	}
	teamRaws, err := rt.FetchProps(cctx, sport, gameIDs, providers.MarketTeamProps)
	if err == nil {
		raws = append(raws, teamRaws...)
	}

	o.pending.add(len(raws))
	defer o.pending.add(-len(raws))

	mapped := make([]domain.CanonicalProp, 0, len(raws))
	for _, raw := range raws {
		if cctx.Err() != nil {
			// Cancelled mid-mapping: drop remaining work cleanly, nothing
			// partially upserted (§4.7 cancellation contract).
			return CycleReport{Sport: sport, ProviderID: rt.ProviderID(), State: CycleFailedPartial}
		}
		prop, err := o.mapper.Map(raw)
		if err != nil {
			report.MapErrors++
			var mapErr *domain.MappingError
			if asMappingError(err, &mapErr) {
				log.Debug().Err(mapErr.Err).Str("provider", mapErr.Provider).
					Str("external_prop_id", mapErr.RawProp.ExternalPropID).
					Msg("prop mapping failed")
			}
			continue
		}
		mapped = append(mapped, prop)
	}

	if cctx.Err() != nil {
		return CycleReport{Sport: sport, ProviderID: rt.ProviderID(), State: CycleFailedPartial}
	}

	report.State = CycleUpserting
	results := o.upserter.UpsertBatch(cctx, mapped)
	for _, r := range results {
		switch r {
		case dedupe.ResultInserted:
			report.Inserted++
		case dedupe.ResultUpdated:
			report.Updated++
		case dedupe.ResultDuplicate:
			report.Duplicate++
		}
	}

	if report.MapErrors > 0 {
		report.State = CycleFailedPartial
	} else {
		report.State = CycleCompleted
	}
	return report
}

func asMappingError(err error, target **domain.MappingError) bool {
	me, ok := err.(*domain.MappingError)
	if ok {
		*target = me
	}
	return ok
}
