package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCacheConfig(t *testing.T) {
	cfg := DefaultCacheConfig()
	assert.Equal(t, 50_000, cfg.L1Capacity)
	assert.Equal(t, 120*time.Second, cfg.TTLLive)
	assert.Equal(t, time.Hour, cfg.TTLPregame)
}

func TestLoadCacheConfig_MissingFileErrors(t *testing.T) {
	_, err := LoadCacheConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadCacheConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	yamlContent := "l1_capacity: 100\nttl_live: 30s\nredis_addr: localhost:6379\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := LoadCacheConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.L1Capacity)
	assert.Equal(t, 30*time.Second, cfg.TTLLive)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	// Field absent from the override keeps its default.
	assert.Equal(t, time.Hour, cfg.TTLPregame)
}

func TestLoadCacheConfig_MalformedYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("l1_capacity: [broken\n"), 0o644))

	_, err := LoadCacheConfig(path)
	assert.Error(t, err)
}
