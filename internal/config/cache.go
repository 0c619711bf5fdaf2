package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CacheConfig configures the multi-tier Cache Manager (spec §4.6).
type CacheConfig struct {
	L1Capacity int           `yaml:"l1_capacity"`
	TTLLive    time.Duration `yaml:"ttl_live"`
	TTLPregame time.Duration `yaml:"ttl_pregame"`
	RedisAddr  string        `yaml:"redis_addr"`
}

// DefaultCacheConfig returns the defaults named in spec §3 and §4.6.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		L1Capacity: 50_000,
		TTLLive:    120 * time.Second,
		TTLPregame: time.Hour,
		RedisAddr:  os.Getenv("REDIS_ADDR"),
	}
}

// LoadCacheConfig reads a cache YAML file, falling back to defaults for any
// field the file omits.
func LoadCacheConfig(path string) (*CacheConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache config: %w", err)
	}
	cfg := DefaultCacheConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse cache config: %w", err)
	}
	return cfg, nil
}
