package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsdata/propline/internal/propline/domain"
)

func floatPtr(f float64) *float64 { return &f }

func TestNormalize_Multiplier(t *testing.T) {
	n := NewNormalizer(nil)
	raw := domain.RawProp{
		Sport:        domain.SportNBA,
		PropCategory: "points",
		OverOdds:     floatPtr(3.0),
		UnderOdds:    floatPtr(2.5),
	}

	schema, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.VariantMultiplier, schema.VariantCode)
	assert.Equal(t, "3", schema.OverMultiplier.String())
	assert.Equal(t, "2.5", schema.UnderMultiplier.String())
}

func TestNormalize_AmericanOddsBoundary(t *testing.T) {
	n := NewNormalizer(nil)
	raw := domain.RawProp{
		Sport:        domain.SportNFL,
		PropCategory: "passing yards",
		OverOdds:     floatPtr(-100),
		UnderOdds:    floatPtr(100),
	}

	schema, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.VariantMoneyline, schema.VariantCode)
	assert.Equal(t, "2", schema.OverMultiplier.String())
	assert.Equal(t, "2", schema.UnderMultiplier.String())
}

func TestNormalize_AmericanOddsAsymmetric(t *testing.T) {
	n := NewNormalizer(nil)
	raw := domain.RawProp{
		Sport:        domain.SportNFL,
		PropCategory: "passing yards",
		OverOdds:     floatPtr(-110),
		UnderOdds:    floatPtr(110),
	}

	schema, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.VariantMoneyline, schema.VariantCode)
	// 1 + 100/110 = 1.909090... rounds bankers to 1.909
	assert.Equal(t, "1.909", schema.OverMultiplier.String())
	// 1 + 110/100 = 2.1
	assert.Equal(t, "2.1", schema.UnderMultiplier.String())
}

func TestNormalize_DecimalOdds(t *testing.T) {
	n := NewNormalizer(nil)
	raw := domain.RawProp{
		Sport:        domain.SportNHL,
		PropCategory: "shots on goal",
		OverOdds:     floatPtr(1.909),
		UnderOdds:    floatPtr(1.870),
	}

	schema, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.VariantMultiplier, schema.VariantCode) // within [1, 100)
	assert.Equal(t, "1.909", schema.OverMultiplier.String())
}

func TestNormalize_MissingBothSides(t *testing.T) {
	n := NewNormalizer(nil)
	_, err := n.Normalize(domain.RawProp{Sport: domain.SportMLB})
	require.ErrorIs(t, err, domain.ErrInsufficientPayout)
}

func TestNormalize_OneSidedSynthesizesOther(t *testing.T) {
	n := NewNormalizer(nil)
	raw := domain.RawProp{
		Sport:        domain.SportMLB,
		PropCategory: "hits",
		OverOdds:     floatPtr(1.8),
	}

	schema, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.VariantMixed, schema.VariantCode)
	assert.True(t, schema.LowConfidence)
	assert.True(t, schema.UnderMultiplier.IsPositive())
}

func TestNormalize_BoostDetection(t *testing.T) {
	baseline := NewBaselineTrackerWithFactor(1.3)
	n := NewNormalizer(baseline)

	raw := domain.RawProp{Sport: domain.SportNBA, PropCategory: "points", OverOdds: floatPtr(3.0), UnderOdds: floatPtr(2.5)}
	for i := 0; i < minBaselineSamples; i++ {
		_, err := n.Normalize(raw)
		require.NoError(t, err)
	}

	boosted := domain.RawProp{Sport: domain.SportNBA, PropCategory: "points", OverOdds: floatPtr(5.0), UnderOdds: floatPtr(2.5)}
	schema, err := n.Normalize(boosted)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutBoost, schema.Type)
	require.NotNil(t, schema.BoostMultiplier)
}

func TestBaselineTracker_RequiresMinimumSamples(t *testing.T) {
	tracker := NewBaselineTrackerWithFactor(1.3)
	key := BaselineKey{Sport: domain.SportNBA, PropCategory: "points"}

	tracker.Observe(key, decimal.NewFromFloat(3.0))
	tracker.Observe(key, decimal.NewFromFloat(3.0))
	assert.False(t, tracker.IsBoost(key, decimal.NewFromFloat(10.0)), "too few samples to call a boost")

	for i := 0; i < minBaselineSamples; i++ {
		tracker.Observe(key, decimal.NewFromFloat(3.0))
	}
	assert.True(t, tracker.IsBoost(key, decimal.NewFromFloat(10.0)))
	assert.False(t, tracker.IsBoost(key, decimal.NewFromFloat(3.1)))
}

func TestBaselineTracker_Reset(t *testing.T) {
	tracker := NewBaselineTracker()
	key := BaselineKey{Sport: domain.SportMLB, PropCategory: "hits"}
	for i := 0; i < minBaselineSamples+1; i++ {
		tracker.Observe(key, decimal.NewFromFloat(2.0))
	}
	require.True(t, tracker.IsBoost(key, decimal.NewFromFloat(10.0)))

	tracker.Reset()
	assert.False(t, tracker.IsBoost(key, decimal.NewFromFloat(10.0)))
}
