package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsdata/propline/internal/config"
	"github.com/sportsdata/propline/internal/propline/domain"
)

func testConfig() *config.TaxonomyConfig {
	return &config.TaxonomyConfig{
		ProviderMappings: []config.ProviderMappingEntry{
			{ProviderID: "draftkings", Sport: "MLB", PropCategory: "Player Strikeouts", PropType: "STRIKEOUTS_PITCHED"},
		},
		GlobalMappings: []config.GlobalMappingEntry{
			{Sport: "MLB", PropCategory: "strikeouts", PropType: "STRIKEOUTS_PITCHED"},
			{Sport: "NBA", PropCategory: "points", PropType: "POINTS"},
		},
		Teams: []config.TeamEntry{
			{Sport: "MLB", FullName: "San Francisco Giants", Code: "SF"},
		},
	}
}

func TestService_ProviderScopedLookupWinsOverGlobal(t *testing.T) {
	svc := NewService(testConfig())
	pt := svc.Normalize("Player Strikeouts", domain.SportMLB, "draftkings")
	assert.Equal(t, domain.PropType("STRIKEOUTS_PITCHED"), pt)
}

func TestService_GlobalLookupFallback(t *testing.T) {
	svc := NewService(testConfig())
	pt := svc.Normalize("Strikeouts", domain.SportMLB, "underdog")
	assert.Equal(t, domain.PropType("STRIKEOUTS_PITCHED"), pt)
}

func TestService_UnknownRecordsMiss(t *testing.T) {
	svc := NewService(testConfig())
	pt := svc.Normalize("Total Bunts", domain.SportMLB, "prizepicks")
	assert.Equal(t, domain.PropTypeUnknown, pt)

	misses := svc.Misses().Snapshot()
	require.Len(t, misses, 1)
	assert.Equal(t, "prizepicks", misses[0].ProviderID)
	assert.Equal(t, 1, misses[0].Count)
}

func TestService_NormalizationStripsPrefixAndPunctuation(t *testing.T) {
	svc := NewService(testConfig())
	pt := svc.Normalize("Player Points!!", domain.SportNBA, "prizepicks")
	assert.Equal(t, domain.PropType("POINTS"), pt)
}

func TestService_Reload(t *testing.T) {
	svc := NewService(testConfig())
	svc.Reload(&config.TaxonomyConfig{
		GlobalMappings: []config.GlobalMappingEntry{
			{Sport: "MLB", PropCategory: "strikeouts", PropType: "REDEFINED"},
		},
	})
	pt := svc.Normalize("strikeouts", domain.SportMLB, "unknown-provider")
	assert.Equal(t, domain.PropType("REDEFINED"), pt)
}

func TestTeamResolver_ExactAndPartialMatch(t *testing.T) {
	r := NewTeamResolver(testConfig())

	code, ok := r.Resolve(domain.SportMLB, "San Francisco Giants")
	assert.True(t, ok)
	assert.Equal(t, "SF", code)

	code, ok = r.Resolve(domain.SportMLB, "SF")
	assert.True(t, ok)
	assert.Equal(t, "SF", code)

	code, ok = r.Resolve(domain.SportMLB, "Giants")
	assert.True(t, ok)
	assert.Equal(t, "SF", code)
}

func TestTeamResolver_UnknownTeamPreservesRawUppercased(t *testing.T) {
	r := NewTeamResolver(testConfig())
	code, ok := r.Resolve(domain.SportMLB, "Atlanta Braves")
	assert.False(t, ok)
	assert.Equal(t, "ATLANTA BRAVES", code)
}

func TestTeamResolver_UnknownSport(t *testing.T) {
	r := NewTeamResolver(testConfig())
	code, ok := r.Resolve(domain.SportNHL, "Boston Bruins")
	assert.False(t, ok)
	assert.Equal(t, "BOSTON BRUINS", code)
}

func TestIsPositionCompatible(t *testing.T) {
	assert.True(t, IsPositionCompatible(domain.SportMLB, domain.PitcherPosition, domain.PropStrikeoutsPitched))
	assert.False(t, IsPositionCompatible(domain.SportMLB, domain.PitcherPosition, domain.PropHits))
	assert.True(t, IsPositionCompatible(domain.SportMLB, "3", domain.PropHits))
	assert.False(t, IsPositionCompatible(domain.SportMLB, "3", domain.PropStrikeoutsPitched))
	assert.True(t, IsPositionCompatible(domain.SportNBA, "1", domain.PropPoints))
	assert.True(t, IsPositionCompatible(domain.SportMLB, domain.TeamPosition, domain.PropTeamTotalRuns))
}
