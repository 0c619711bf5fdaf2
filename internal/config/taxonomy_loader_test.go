package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTaxonomyConfig_MissingFileErrors(t *testing.T) {
	_, err := LoadTaxonomyConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadTaxonomyConfig_ParsesMappingsAndTeams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	yamlContent := `
provider_mappings:
  - provider_id: prizepicks
    sport: MLB
    prop_category: Ks
    prop_type: STRIKEOUTS_PITCHED
global_mappings:
  - sport: MLB
    prop_category: strikeouts
    prop_type: STRIKEOUTS_PITCHED
teams:
  - sport: MLB
    full_name: San Francisco Giants
    code: SF
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := LoadTaxonomyConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.ProviderMappings, 1)
	assert.Equal(t, "prizepicks", cfg.ProviderMappings[0].ProviderID)
	require.Len(t, cfg.GlobalMappings, 1)
	require.Len(t, cfg.Teams, 1)
	assert.Equal(t, "SF", cfg.Teams[0].Code)
}

func TestLoadTaxonomyConfig_MalformedYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("teams: [broken\n"), 0o644))

	_, err := LoadTaxonomyConfig(path)
	assert.Error(t, err)
}
