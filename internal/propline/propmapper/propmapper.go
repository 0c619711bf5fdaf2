// Package propmapper implements the Prop Mapper (spec §4.4): team
// resolution, taxonomy classification, payout normalization, and the
// content-addressed line_hash that gives every CanonicalProp its identity.
package propmapper

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sportsdata/propline/internal/propline/domain"
	"github.com/sportsdata/propline/internal/propline/normalize"
	"github.com/sportsdata/propline/internal/propline/taxonomy"
)

// Clock returns the ingested_ts assigned to newly mapped props. A field so
// tests can inject a fixed time.
type Clock func() time.Time

// Mapper implements the §4.4 contract over injected collaborators.
type Mapper struct {
	taxonomy   *taxonomy.Service
	teams      *taxonomy.TeamResolver
	normalizer *normalize.Normalizer
	clock      Clock
}

// New builds a Mapper. clock defaults to time.Now if nil.
func New(tax *taxonomy.Service, teams *taxonomy.TeamResolver, norm *normalize.Normalizer, clock Clock) *Mapper {
	if clock == nil {
		clock = time.Now
	}
	return &Mapper{taxonomy: tax, teams: teams, normalizer: norm, clock: clock}
}

// Map implements the §4.4 steps in order: team resolution, taxonomy
// classification, payout normalization, line_hash, assembly.
func (m *Mapper) Map(raw domain.RawProp) (domain.CanonicalProp, error) {
	if !isValidLine(raw.LineValue) {
		return domain.CanonicalProp{}, &domain.MappingError{Err: domain.ErrInvalidLine, Provider: raw.ProviderID, RawProp: raw}
	}

	teamCode, _ := m.teams.Resolve(raw.Sport, raw.TeamCode)
	// UnknownTeam is a warning per §4.4, never fatal: an unresolved code is
	// preserved (uppercased) by Resolve rather than blocking the mapping.

	// A taxonomy miss is not fatal to the mapping (§4.3, §7, Scenario E):
	// the prop is still ingested with PropType = UNKNOWN so it round-trips
	// through the cache and durable store; only the default query surface
	// (cache.Manager.Query) excludes it. The miss itself is already
	// recorded by taxonomy.Service.Normalize for operator review.
	propType := m.taxonomy.Normalize(raw.PropCategory, raw.Sport, raw.ProviderID)

	payout, err := m.normalizer.Normalize(raw)
	if err != nil {
		return domain.CanonicalProp{}, &domain.MappingError{Err: err, Provider: raw.ProviderID, RawProp: raw}
	}

	lineHash := ComputeLineHash(propType, raw.LineValue, payout)

	return domain.CanonicalProp{
		LineHash:       lineHash,
		PropType:       propType,
		Sport:          raw.Sport,
		ExternalPlayer: raw.ExternalPlayerID,
		ProviderID:     raw.ProviderID,
		PlayerName:     raw.PlayerName,
		TeamCode:       teamCode,
		Position:       raw.Position,
		OfferedLine:    decimal.NewFromFloat(raw.LineValue).Round(1),
		Payout:         payout,
		ExternalPropID: raw.ExternalPropID,
		GameID:         raw.GameID,
		GameStatus:     raw.GameStatus,
		GameStartTS:    raw.GameStartTS,
		UpdatedTS:      raw.UpdatedTS,
		IngestedTS:     m.clock(),
	}, nil
}

// ComputeLineHash implements spec §3 Invariant 1: a SHA-256 over a fixed
// order, fixed precision byte encoding of (prop_type, offered_line @
// 1-decimal, payout.type, payout.variant_code, over_multiplier @ 3-decimal,
// under_multiplier @ 3-decimal, boost_multiplier @ 3-decimal). The boost
// component is the literal string "none" when absent, never an empty
// string, so presence/absence of a boost is itself part of the address.
func ComputeLineHash(propType domain.PropType, line float64, payout domain.PayoutSchema) string {
	boost := "none"
	if payout.BoostMultiplier != nil {
		boost = payout.BoostMultiplier.Round(3).String()
	}

	input := fmt.Sprintf(
		"%s|%s|%s|%s|%s|%s|%s",
		propType,
		decimal.NewFromFloat(line).Round(1).String(),
		payout.Type,
		payout.VariantCode,
		payout.OverMultiplier.Round(3).String(),
		payout.UnderMultiplier.Round(3).String(),
		boost,
	)

	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

func isValidLine(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
