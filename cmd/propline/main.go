package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sportsdata/propline/internal/config"
	"github.com/sportsdata/propline/internal/httpapi"
	"github.com/sportsdata/propline/internal/propline/cache"
	"github.com/sportsdata/propline/internal/propline/dedupe"
	"github.com/sportsdata/propline/internal/propline/domain"
	"github.com/sportsdata/propline/internal/propline/normalize"
	"github.com/sportsdata/propline/internal/propline/orchestrator"
	"github.com/sportsdata/propline/internal/propline/propmapper"
	"github.com/sportsdata/propline/internal/propline/providers"
	"github.com/sportsdata/propline/internal/propline/store"
	"github.com/sportsdata/propline/internal/propline/taxonomy"
)

const (
	appName = "propline"
	version = "v0.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		// Interactive terminal: human-readable console output.
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	// Non-interactive (redirected to a file, piped, under a process
	// supervisor): leave zerolog's default JSON writer so log aggregators
	// get structured lines instead of ANSI-colored console formatting.

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Prop ingestion and canonicalization pipeline",
		Version: version,
	}

	var configPath string
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/app.yaml", "path to app config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion orchestrator and the query surface HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Load every config file and report validation errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateConfig(configPath)
		},
	}

	rootCmd.AddCommand(serveCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("propline exited with error")
	}
}

func runValidateConfig(appConfigPath string) error {
	appCfg, err := config.LoadAppConfig(appConfigPath)
	if err != nil {
		return err
	}
	if _, err := config.LoadProvidersConfig(appCfg.ProvidersPath); err != nil {
		return err
	}
	if _, err := config.LoadTaxonomyConfig(appCfg.TaxonomyPath); err != nil {
		return err
	}
	if _, err := config.LoadCacheConfig(appCfg.CachePath); err != nil {
		return err
	}
	log.Info().Msg("all configs loaded and validated")
	return nil
}

func runServe(appConfigPath string) error {
	appCfg, err := config.LoadAppConfig(appConfigPath)
	if err != nil {
		return err
	}

	providersCfg, err := config.LoadProvidersConfig(appCfg.ProvidersPath)
	if err != nil {
		log.Warn().Err(err).Msg("falling back to default providers config")
		providersCfg = config.DefaultProvidersConfig()
	}
	if err := providersCfg.Validate(); err != nil {
		return err
	}

	taxonomyCfg, err := config.LoadTaxonomyConfig(appCfg.TaxonomyPath)
	if err != nil {
		return err
	}

	cacheCfg, err := config.LoadCacheConfig(appCfg.CachePath)
	if err != nil {
		log.Warn().Err(err).Msg("falling back to default cache config")
		cacheCfg = config.DefaultCacheConfig()
	}

	taxSvc := taxonomy.NewService(taxonomyCfg)
	teamResolver := taxonomy.NewTeamResolver(taxonomyCfg)
	baseline := normalize.NewBaselineTracker()
	normalizer := normalize.NewNormalizer(baseline)
	mapper := propmapper.New(taxSvc, teamResolver, normalizer, time.Now)

	circuits := providers.NewCircuitManager()
	limiter := providers.NewRateLimiter()
	registry := buildRegistry(providersCfg, limiter, circuits)

	l1 := cache.NewL1(cacheCfg.L1Capacity)
	defer l1.Close()
	l2 := cache.NewL2(buildRedisClient(cacheCfg.RedisAddr))
	cacheManager := cache.NewManager(l1, l2)

	upserter := dedupe.New(cacheManager, nil)

	var propsStore store.PropsStore
	if appCfg.DatabaseDSN != "" {
		db, err := sqlx.Connect("postgres", appCfg.DatabaseDSN)
		if err != nil {
			log.Warn().Err(err).Msg("durable store unavailable, continuing cache-only")
		} else {
			propsStore = store.NewPostgresStore(db, providersCfg.Global.QueryTimeout)
		}
	}

	orch := orchestrator.New(registry, mapper, upserter, providersCfg.Global)

	reg := prometheus.NewRegistry()
	metrics := httpapi.NewMetricsRegistry(reg)
	handlers := httpapi.NewHandlers(cacheManager, propsStore, circuits, taxSvc, teamResolver, metrics)

	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Host = appCfg.HTTPHost
	serverCfg.Port = appCfg.HTTPPort
	server := httpapi.NewServer(serverCfg, handlers, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sports := make([]domain.Sport, 0, len(appCfg.Sports))
	for _, s := range appCfg.Sports {
		sports = append(sports, domain.Sport(s))
	}

	go func() {
		cadence := time.Duration(appCfg.LiveCadenceSec) * time.Second
		if err := orch.Run(ctx, sports, cadence); err != nil {
			log.Error().Err(err).Msg("orchestrator stopped")
		}
	}()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildRegistry(cfg *config.ProvidersConfig, limiter *providers.RateLimiter, circuits *providers.CircuitManager) *providers.Registry {
	registry := providers.NewRegistry()

	clientFactories := map[string]func(baseURL string, hc *http.Client) providers.Client{
		"prizepicks": func(baseURL string, hc *http.Client) providers.Client { return providers.NewPrizePicksClient(baseURL, hc) },
		"draftkings": func(baseURL string, hc *http.Client) providers.Client { return providers.NewDraftKingsClient(baseURL, hc) },
		"underdog":   func(baseURL string, hc *http.Client) providers.Client { return providers.NewUnderdogClient(baseURL, hc) },
	}

	for id, pcfg := range cfg.Providers {
		if !pcfg.Enabled {
			continue
		}
		factory, ok := clientFactories[id]
		if !ok {
			log.Warn().Str("provider", id).Msg("no client implementation registered for provider")
			continue
		}
		hc := &http.Client{Timeout: pcfg.RequestTimeout}
		client := factory(pcfg.BaseURL, hc)
		rt := providers.NewRuntime(client, pcfg, limiter, circuits)
		registry.Add(rt)
	}
	return registry
}

func buildRedisClient(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}
