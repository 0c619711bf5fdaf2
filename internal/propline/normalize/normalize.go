// Package normalize implements the Payout Normalizer (spec §4.2): converting
// provider-specific odds encodings (multiplier, American, decimal) into the
// canonical PayoutSchema, with deterministic banker's rounding so the Prop
// Mapper's line_hash is stable across repeated normalizations.
package normalize

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/sportsdata/propline/internal/propline/domain"
)

// defaultVig is assumed when only one side's odds are present and the
// implied probability of the other must be synthesized (spec §4.2).
const defaultVig = 0.05

// Normalizer converts RawProp payout fields into a canonical PayoutSchema.
// It tracks a running mean of over-multipliers per (sport, raw prop_category)
// to support boost detection (spec §4.2's "materially above baseline" rule).
// The baseline is not a median, has no time window, and is not keyed by the
// mapped prop_type.
type Normalizer struct {
	baseline *BaselineTracker
}

// NewNormalizer builds a Normalizer backed by the given baseline tracker.
// Pass nil to disable boost detection (every prop reports its raw type).
func NewNormalizer(baseline *BaselineTracker) *Normalizer {
	return &Normalizer{baseline: baseline}
}

// Normalize implements the §4.2 contract.
func (n *Normalizer) Normalize(raw domain.RawProp) (domain.PayoutSchema, error) {
	over, under, haveOver, haveUnder := raw.OverOdds, raw.UnderOdds, raw.OverOdds != nil, raw.UnderOdds != nil

	if !haveOver && !haveUnder {
		return domain.PayoutSchema{}, domain.ErrInsufficientPayout
	}

	var overMult, underMult decimal.Decimal
	var variant domain.VariantCode
	lowConfidence := false

	switch {
	case haveOver && haveUnder:
		overMult, underMult, variant = detectBoth(*over, *under)
	case haveOver:
		overMult = detectSingle(*over)
		underMult = synthesizeOther(overMult)
		variant = domain.VariantMixed
		lowConfidence = true
	default: // haveUnder only
		underMult = detectSingle(*under)
		overMult = synthesizeOther(underMult)
		variant = domain.VariantMixed
		lowConfidence = true
	}

	overMult = roundBankers(overMult, 3)
	underMult = roundBankers(underMult, 3)

	payoutType := raw.PayoutType
	if payoutType == "" {
		payoutType = domain.PayoutStandard
	}

	schema := domain.PayoutSchema{
		Type:            payoutType,
		VariantCode:     variant,
		OverMultiplier:  overMult,
		UnderMultiplier: underMult,
		ProviderFormat: map[string]any{
			"provider_id":   raw.ProviderID,
			"raw_over_odds": optFloat(raw.OverOdds),
			"raw_under_odds": optFloat(raw.UnderOdds),
			"payout_type":   string(raw.PayoutType),
		},
		LowConfidence: lowConfidence,
	}

	if n.baseline != nil {
		key := BaselineKey{Sport: raw.Sport, PropCategory: raw.PropCategory}
		if n.baseline.IsBoost(key, overMult) {
			boosted := overMult
			schema.BoostMultiplier = &boosted
			schema.Type = domain.PayoutBoost
		}
		n.baseline.Observe(key, overMult)
	}

	return schema, nil
}

// detectBoth classifies a two-sided quote per the detection rules in spec
// §4.2. The rules as written overlap at the boundary (a "multiplier" of
// exactly 100.0x and American "+100" both fall in [1.0, 100.0]); the spec's
// own worked boundary cases (American -100 and +100 both hash to a 2.000
// multiplier) resolve that overlap in American's favor, so American is
// checked first here rather than in the rule's listed order. This is
// recorded as an open-question resolution in DESIGN.md.
func detectBoth(over, under float64) (decimal.Decimal, decimal.Decimal, domain.VariantCode) {
	if isAmerican(over) || isAmerican(under) {
		return americanToMultiplier(over), americanToMultiplier(under), domain.VariantMoneyline
	}
	if isMultiplierRange(over) && isMultiplierRange(under) {
		return decimal.NewFromFloat(over), decimal.NewFromFloat(under), domain.VariantMultiplier
	}
	if isDecimalRange(over) && isDecimalRange(under) {
		return decimal.NewFromFloat(over), decimal.NewFromFloat(under), domain.VariantDecimal
	}
	// Mixed / undetected: heuristic per spec §4.2 rule 4.
	return heuristicMultiplier(over), heuristicMultiplier(under), domain.VariantMixed
}

func detectSingle(v float64) decimal.Decimal {
	switch {
	case isAmerican(v):
		return americanToMultiplier(v)
	case isMultiplierRange(v), isDecimalRange(v):
		return decimal.NewFromFloat(v)
	default:
		return heuristicMultiplier(v)
	}
}

func heuristicMultiplier(v float64) decimal.Decimal {
	if math.Abs(v) >= 100 {
		return americanToMultiplier(v)
	}
	return decimal.NewFromFloat(v)
}

// isAmerican matches spec §4.2 rule 2: a negative value is always an
// explicit-sign American quote; a non-negative value is American once its
// magnitude reaches the boundary (100) shared with the multiplier range.
func isAmerican(v float64) bool {
	return v < 0 || v >= 100
}

// isMultiplierRange matches spec §4.2 rule 1: both sides in [1.0, 100.0), no
// sign. The upper bound is exclusive so it does not re-capture American's
// +100 boundary case (see detectBoth).
func isMultiplierRange(v float64) bool {
	return v >= 1.0 && v < 100.0
}

// isDecimalRange matches spec §4.2 rule 3: (1.0, 50.0) without sign
// ambiguity. In practice decimal odds and multipliers are the same number.
// detectBoth reaches this check only after its multiplier check has failed,
// and every value in (1.0, 50.0) also lies in the multiplier range
// [1.0, 100.0), so in detectBoth it never matches and a two-sided quote is
// never classified VariantDecimal; detectSingle treats both ranges alike.
func isDecimalRange(v float64) bool {
	return v > 1.0 && v < 50.0
}

// americanToMultiplier applies spec §4.2's conversion formula exactly,
// including the boundary cases (+100 and -100 both yield 2.000).
func americanToMultiplier(x float64) decimal.Decimal {
	if x > 0 {
		return decimal.NewFromFloat(1).Add(decimal.NewFromFloat(x).Div(decimal.NewFromInt(100)))
	}
	return decimal.NewFromFloat(1).Add(decimal.NewFromInt(100).Div(decimal.NewFromFloat(math.Abs(x))))
}

// synthesizeOther derives the missing side from implied probability assuming
// defaultVig (spec §4.2: "1/over_mult + 1/other = 1 + vig").
func synthesizeOther(known decimal.Decimal) decimal.Decimal {
	knownF, _ := known.Float64()
	if knownF <= 0 {
		return decimal.Zero
	}
	impliedKnown := 1.0 / knownF
	impliedOther := (1.0 + defaultVig) - impliedKnown
	if impliedOther <= 0 {
		impliedOther = 0.01
	}
	return decimal.NewFromFloat(1.0 / impliedOther)
}

// roundBankers rounds to the given number of decimal places using
// round-half-to-even, as spec §4.2 requires ("banker's rounding").
func roundBankers(d decimal.Decimal, places int32) decimal.Decimal {
	return d.RoundBank(places)
}

func optFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
