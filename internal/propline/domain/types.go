// Package domain holds the canonical data model shared across every pipeline
// stage: raw provider records, the normalized payout schema, and the
// content-addressed canonical prop.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sport is the closed set of sports the pipeline ingests.
type Sport string

const (
	SportMLB Sport = "MLB"
	SportNBA Sport = "NBA"
	SportNFL Sport = "NFL"
	SportNHL Sport = "NHL"
)

// GameStatus mirrors the upstream game lifecycle.
type GameStatus string

const (
	GameScheduled GameStatus = "SCHEDULED"
	GameLive      GameStatus = "LIVE"
	GameFinal     GameStatus = "FINAL"
)

// PayoutType is the provider's offering shape.
type PayoutType string

const (
	PayoutStandard   PayoutType = "STANDARD"
	PayoutFlex       PayoutType = "FLEX"
	PayoutBoost      PayoutType = "BOOST"
	PayoutMultiplier PayoutType = "MULTIPLIER"
)

// VariantCode records which odds encoding produced a PayoutSchema.
type VariantCode string

const (
	VariantMultiplier VariantCode = "MULTIPLIER"
	VariantMoneyline  VariantCode = "MONEYLINE"
	VariantDecimal    VariantCode = "DECIMAL"
	VariantMixed      VariantCode = "MIXED"
)

// PropType is the canonical, sport-scoped stat taxonomy. UNKNOWN is a valid
// member used when the Taxonomy Service cannot classify a provider category.
type PropType string

const PropTypeUnknown PropType = "UNKNOWN"

// Pitcher-stat prop types (position "1" in baseball).
const (
	PropStrikeoutsPitched PropType = "STRIKEOUTS_PITCHED"
	PropInningsPitched    PropType = "INNINGS_PITCHED"
	PropHitsAllowed       PropType = "HITS_ALLOWED"
	PropWalksAllowed      PropType = "WALKS_ALLOWED"
	PropEarnedRuns        PropType = "EARNED_RUNS"
	PropWins              PropType = "WINS"
	PropSaves             PropType = "SAVES"
	PropERA               PropType = "ERA"
	PropWHIP              PropType = "WHIP"
)

// Batter-stat prop types (every other position in baseball).
const (
	PropHits          PropType = "HITS"
	PropHomeRuns      PropType = "HOME_RUNS"
	PropRBI           PropType = "RUNS_BATTED_IN"
	PropRunsScored    PropType = "RUNS_SCORED"
	PropTotalBases    PropType = "TOTAL_BASES"
	PropStolenBases   PropType = "STOLEN_BASES"
	PropDoubles       PropType = "DOUBLES"
	PropWalksBatter   PropType = "WALKS_BATTER"
	PropStrikeoutsBat PropType = "STRIKEOUTS_BATTER"
)

// Cross-sport generic prop types, plus a team-total example.
const (
	PropPoints         PropType = "POINTS"
	PropAssists        PropType = "ASSISTS"
	PropRebounds       PropType = "REBOUNDS"
	PropTeamTotalRuns  PropType = "TEAM_TOTAL_RUNS"
	PropPassingYards   PropType = "PASSING_YARDS"
	PropReceivingYards PropType = "RECEIVING_YARDS"
	PropShotsOnGoal    PropType = "SHOTS_ON_GOAL"
)

// TeamPosition is the sentinel position string for team props.
const TeamPosition = "TEAM"

// PitcherPosition is baseball's pitcher position code.
const PitcherPosition = "1"

// RawProp is the provider-native record produced by a Provider Client, after
// that client's own adapter has shaped the upstream JSON into this struct.
// The rest of the pipeline never sees provider-specific shapes.
type RawProp struct {
	ProviderID        string
	ExternalPropID    string
	ExternalPlayerID  string
	PlayerName        string
	TeamCode          string
	Position          string
	PropCategory      string
	LineValue         float64
	PayoutType        PayoutType
	OverOdds          *float64
	UnderOdds         *float64
	OverIsPromoBoost  bool
	UpdatedTS         time.Time
	Sport             Sport
	GameID            string
	GameStatus        GameStatus
	GameStartTS       time.Time
}

// PayoutSchema is the canonical, provider-independent payout representation.
type PayoutSchema struct {
	Type             PayoutType
	VariantCode      VariantCode
	OverMultiplier   decimal.Decimal
	UnderMultiplier  decimal.Decimal
	BoostMultiplier  *decimal.Decimal
	ProviderFormat   map[string]any
	LowConfidence    bool
}

// CanonicalProp is the pipeline's normalized, content-addressed record.
type CanonicalProp struct {
	LineHash       string // 64 hex chars (32-byte SHA-256)
	PropType       PropType
	Sport          Sport
	ExternalPlayer string // external_player_id, empty for team props
	ProviderID     string
	PlayerName     string
	TeamCode       string
	Position       string
	OfferedLine    decimal.Decimal
	Payout         PayoutSchema
	ExternalPropID string
	GameID         string
	GameStatus     GameStatus
	GameStartTS    time.Time
	UpdatedTS      time.Time // provider-reported update time, carried from RawProp.UpdatedTS
	IngestedTS     time.Time // local processing clock, set at mapping time
	Superseded     bool
}

// PlayerKey returns the identity used for player-prop de-scoping; team props
// key off TeamCode instead (invariant 5 in spec.md: this is NOT the line
// identity, line_hash is).
func (c *CanonicalProp) PlayerKey() string {
	if c.Position == TeamPosition {
		return c.Sport.String() + "|team|" + c.TeamCode
	}
	return c.Sport.String() + "|player|" + c.ExternalPlayer + "|" + c.ProviderID
}

func (s Sport) String() string { return string(s) }
