package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppConfig is the top-level on-disk configuration file: paths to the
// narrower config files plus process-wide settings that don't belong in
// any single pipeline stage.
type AppConfig struct {
	ProvidersPath string `yaml:"providers_path"`
	TaxonomyPath  string `yaml:"taxonomy_path"`
	CachePath     string `yaml:"cache_path"`
	DatabaseDSN   string `yaml:"database_dsn"`
	HTTPHost      string `yaml:"http_host"`
	HTTPPort      int    `yaml:"http_port"`
	Sports        []string `yaml:"sports"`
	LiveCadenceSec    int `yaml:"live_cadence_seconds"`
	PregameCadenceSec int `yaml:"pregame_cadence_seconds"`
}

// DefaultAppConfig returns sane defaults for local/dev runs.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		ProvidersPath:     "config/providers.yaml",
		TaxonomyPath:      "config/taxonomy.yaml",
		CachePath:         "config/cache.yaml",
		DatabaseDSN:       os.Getenv("PROPLINE_DATABASE_DSN"),
		HTTPHost:          "0.0.0.0",
		HTTPPort:          8080,
		Sports:            []string{"MLB", "NBA", "NFL", "NHL"},
		LiveCadenceSec:    60,
		PregameCadenceSec: 300,
	}
}

// LoadAppConfig reads the top-level YAML config file at path, falling back
// to DefaultAppConfig for any field the file doesn't set.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read app config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse app config: %w", err)
	}
	return cfg, nil
}
