package taxonomy

import "github.com/sportsdata/propline/internal/propline/domain"

// pitcherStatTypes and batterStatTypes are the static, sport-scoped
// compatibility tables spec §4.8 requires for position-aware filtering.
// Currently baseball is the only sport with a pitcher/batter split; other
// sports have no position-incompatible prop types, so every prop_type for
// them is compatible with every position.
var pitcherStatTypes = map[domain.PropType]struct{}{
	domain.PropStrikeoutsPitched: {},
	domain.PropInningsPitched:    {},
	domain.PropHitsAllowed:       {},
	domain.PropWalksAllowed:      {},
	domain.PropEarnedRuns:        {},
	domain.PropWins:              {},
	domain.PropSaves:             {},
	domain.PropERA:               {},
	domain.PropWHIP:              {},
}

var batterStatTypes = map[domain.PropType]struct{}{
	domain.PropHits:          {},
	domain.PropHomeRuns:      {},
	domain.PropRBI:           {},
	domain.PropRunsScored:    {},
	domain.PropTotalBases:    {},
	domain.PropStolenBases:   {},
	domain.PropDoubles:       {},
	domain.PropWalksBatter:   {},
	domain.PropStrikeoutsBat: {},
}

// IsPositionCompatible implements spec §4.8's position-aware filter:
// pitchers only see pitcher-stat prop types, every other position only sees
// batter-stat prop types, team props and missing positions always pass
// (fail-safe), and sports with no split (NBA/NFL/NHL) never exclude on
// position.
func IsPositionCompatible(sport domain.Sport, position string, propType domain.PropType) bool {
	if position == "" || position == domain.TeamPosition {
		return true
	}
	if sport != domain.SportMLB {
		return true
	}

	_, isPitcherStat := pitcherStatTypes[propType]
	_, isBatterStat := batterStatTypes[propType]
	if !isPitcherStat && !isBatterStat {
		// Cross-sport generic prop types carry no baseball position
		// restriction.
		return true
	}

	if position == domain.PitcherPosition {
		return isPitcherStat
	}
	return isBatterStat
}
