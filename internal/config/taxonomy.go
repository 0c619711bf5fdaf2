package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProviderMappingEntry binds one provider's raw prop_category string, for a
// given sport, to a canonical prop type.
type ProviderMappingEntry struct {
	ProviderID   string `yaml:"provider_id"`
	Sport        string `yaml:"sport"`
	PropCategory string `yaml:"prop_category"`
	PropType     string `yaml:"prop_type"`
}

// GlobalMappingEntry binds a sport-scoped, normalized prop_category string to
// a canonical prop type, used when no provider-scoped entry matches.
type GlobalMappingEntry struct {
	Sport        string `yaml:"sport"`
	PropCategory string `yaml:"prop_category"`
	PropType     string `yaml:"prop_type"`
}

// TeamEntry maps a sport-scoped team full name to its short code.
type TeamEntry struct {
	Sport    string `yaml:"sport"`
	FullName string `yaml:"full_name"`
	Code     string `yaml:"code"`
}

// TaxonomyConfig is the on-disk shape of the taxonomy tables (spec §4.3).
type TaxonomyConfig struct {
	ProviderMappings []ProviderMappingEntry `yaml:"provider_mappings"`
	GlobalMappings   []GlobalMappingEntry    `yaml:"global_mappings"`
	Teams            []TeamEntry             `yaml:"teams"`
}

// LoadTaxonomyConfig reads a YAML taxonomy table file from path.
func LoadTaxonomyConfig(path string) (*TaxonomyConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy config: %w", err)
	}
	var cfg TaxonomyConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse taxonomy config: %w", err)
	}
	return &cfg, nil
}
