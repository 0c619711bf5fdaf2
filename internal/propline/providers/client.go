package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sportsdata/propline/internal/config"
	"github.com/sportsdata/propline/internal/propline/domain"
)

// Game is the minimal schedule record a Client returns from
// FetchScheduledGames.
type Game struct {
	GameID     string
	Sport      domain.Sport
	Status     domain.GameStatus
	StartTS    time.Time
	HomeTeam   string
	AwayTeam   string
}

// MarketType selects which prop book to fetch.
type MarketType string

const (
	MarketPlayerProps MarketType = "playerprops"
	MarketTeamProps   MarketType = "teamprops"
)

// Client is the stateless-fetcher contract every provider adapter
// implements (spec §4.1). Each concrete Client is responsible only for
// translating its upstream JSON into domain.RawProp / providers.Game; rate
// limiting, retry, and circuit breaking are supplied by Runtime, not the
// Client itself ("Provider clients must never fabricate data on failure").
type Client interface {
	ProviderID() string
	FetchScheduledGames(ctx context.Context, sport domain.Sport) ([]Game, error)
	FetchProps(ctx context.Context, sport domain.Sport, gameIDs []string, market MarketType) ([]domain.RawProp, error)
}

// Runtime wraps a Client with the shared resilience stack: rate limiter,
// retry-with-backoff, and circuit breaker, matching the composition the
// teacher's provider layer performs around each exchange adapter.
type Runtime struct {
	client   Client
	cfg      config.ProviderConfig
	limiter  *RateLimiter
	circuits *CircuitManager
	http     *http.Client
}

// NewRuntime builds a Runtime for a Client, registering it with the shared
// rate limiter and circuit manager.
func NewRuntime(client Client, cfg config.ProviderConfig, limiter *RateLimiter, circuits *CircuitManager) *Runtime {
	limiter.Configure(cfg.Host, cfg.RPS, cfg.Burst)
	circuits.Register(client.ProviderID(), cfg.Circuit)
	return &Runtime{
		client:   client,
		cfg:      cfg,
		limiter:  limiter,
		circuits: circuits,
		http:     &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// FetchScheduledGames runs the wrapped Client's fetch behind the rate
// limiter, retry policy, and circuit breaker.
func (r *Runtime) FetchScheduledGames(ctx context.Context, sport domain.Sport) ([]Game, error) {
	var games []Game
	_, err := r.circuits.Execute(r.client.ProviderID(), func() (any, error) {
		err := withRetry(ctx, r.cfg.Backoff, func(ctx context.Context) error {
			if werr := r.limiter.Wait(ctx, r.cfg.Host); werr != nil {
				return werr
			}
			fetched, ferr := r.client.FetchScheduledGames(ctx, sport)
			if ferr != nil {
				return ferr
			}
			games = fetched
			return nil
		})
		return nil, err
	})
	if err != nil {
		log.Warn().Str("provider", r.client.ProviderID()).Str("sport", string(sport)).Err(err).
			Msg("fetch scheduled games failed")
		return nil, translateCircuitErr(err)
	}
	return games, nil
}

// FetchProps runs the wrapped Client's prop fetch behind the same stack.
func (r *Runtime) FetchProps(ctx context.Context, sport domain.Sport, gameIDs []string, market MarketType) ([]domain.RawProp, error) {
	var props []domain.RawProp
	_, err := r.circuits.Execute(r.client.ProviderID(), func() (any, error) {
		err := withRetry(ctx, r.cfg.Backoff, func(ctx context.Context) error {
			if werr := r.limiter.Wait(ctx, r.cfg.Host); werr != nil {
				return werr
			}
			fetched, ferr := r.client.FetchProps(ctx, sport, gameIDs, market)
			if ferr != nil {
				return ferr
			}
			props = fetched
			return nil
		})
		return nil, err
	})
	if err != nil {
		log.Warn().Str("provider", r.client.ProviderID()).Str("sport", string(sport)).Err(err).
			Msg("fetch props failed")
		return nil, translateCircuitErr(err)
	}
	return props, nil
}

// ProviderID exposes the wrapped client's identity.
func (r *Runtime) ProviderID() string { return r.client.ProviderID() }

func translateCircuitErr(err error) error {
	if err == nil {
		return nil
	}
	if err.Error() == "circuit breaker is open" {
		return domain.ErrCircuitOpen
	}
	return err
}
