// Package config loads the pipeline's YAML configuration files. The shape
// mirrors the teacher's internal/config/providers.go: a top-level struct per
// concern, a Load*Config(path) (*T, error) constructor, and a Validate pass.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProvidersConfig is the complete provider fetch/resilience configuration.
type ProvidersConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
	Global    GlobalConfig              `yaml:"global"`
}

// ProviderConfig configures a single upstream provider client.
type ProviderConfig struct {
	Host             string        `yaml:"host"`
	BaseURL          string        `yaml:"base_url"`
	RPS              float64       `yaml:"rps"`
	Burst            int           `yaml:"burst"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	Backoff          BackoffConfig `yaml:"backoff"`
	Circuit          CircuitConfig `yaml:"circuit"`
	Enabled          bool          `yaml:"enabled"`
	CadenceLive      time.Duration `yaml:"cadence_live"`
	CadencePregame   time.Duration `yaml:"cadence_pregame"`
}

// BackoffConfig configures jittered exponential retry (spec §4.1).
type BackoffConfig struct {
	BaseMS     int `yaml:"base_ms"`
	FactorX    int `yaml:"factor"`
	CapMS      int `yaml:"cap_ms"`
	MaxRetries int `yaml:"max_retries"`
}

// CircuitConfig configures the gobreaker-backed circuit breaker.
type CircuitConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	WindowRequests   int           `yaml:"window_requests"`
	FailureRate      float64       `yaml:"failure_rate"`
	Cooldown         time.Duration `yaml:"cooldown"`
	MaxCooldown      time.Duration `yaml:"max_cooldown"`
}

// GlobalConfig holds orchestrator-wide concurrency and backpressure knobs.
type GlobalConfig struct {
	MaxInFlight          int           `yaml:"max_in_flight"`
	UpsertHighWater      int           `yaml:"upsert_high_water"`
	UpsertLowWater       int           `yaml:"upsert_low_water"`
	CycleTimeout         time.Duration `yaml:"cycle_timeout"`
	QueryTimeout         time.Duration `yaml:"query_timeout"`
}

// DefaultProvidersConfig returns sane defaults matching spec.md's stated
// figures, used when no YAML file is supplied (e.g. in tests).
func DefaultProvidersConfig() *ProvidersConfig {
	return &ProvidersConfig{
		Providers: map[string]ProviderConfig{},
		Global: GlobalConfig{
			MaxInFlight:     25,
			UpsertHighWater: 10_000,
			UpsertLowWater:  5_000,
			CycleTimeout:    2 * time.Minute,
			QueryTimeout:    5 * time.Second,
		},
	}
}

// DefaultProviderConfig returns the per-provider defaults from spec §4.1.
func DefaultProviderConfig(host, baseURL string) ProviderConfig {
	return ProviderConfig{
		Host:           host,
		BaseURL:        baseURL,
		RPS:            5,
		Burst:          10,
		RequestTimeout: 10 * time.Second,
		Enabled:        true,
		CadenceLive:    60 * time.Second,
		CadencePregame: 5 * time.Minute,
		Backoff: BackoffConfig{
			BaseMS:     100,
			FactorX:    2,
			CapMS:      5_000,
			MaxRetries: 3,
		},
		Circuit: CircuitConfig{
			FailureThreshold: 5,
			WindowRequests:   20,
			FailureRate:      0.5,
			Cooldown:         30 * time.Second,
			MaxCooldown:      5 * time.Minute,
		},
	}
}

// LoadProvidersConfig reads and validates a providers YAML file.
func LoadProvidersConfig(path string) (*ProvidersConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers config: %w", err)
	}

	cfg := DefaultProvidersConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse providers config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid providers config: %w", err)
	}
	return cfg, nil
}

// Validate checks internal consistency of the loaded configuration.
func (c *ProvidersConfig) Validate() error {
	if c.Global.UpsertLowWater >= c.Global.UpsertHighWater {
		return fmt.Errorf("upsert_low_water (%d) must be below upsert_high_water (%d)",
			c.Global.UpsertLowWater, c.Global.UpsertHighWater)
	}
	for name, p := range c.Providers {
		if p.RPS <= 0 {
			return fmt.Errorf("provider %s: rps must be positive", name)
		}
		if p.Circuit.FailureThreshold <= 0 {
			return fmt.Errorf("provider %s: circuit.failure_threshold must be positive", name)
		}
	}
	return nil
}
