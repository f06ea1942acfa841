package meal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		input string
		want  Tier
	}{
		{"basic", TierBasic},
		{"premium", TierPremium},
		{"vip", TierVIP},
		{"", TierBasic},
		{"enterprise", TierBasic},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTier(tt.input), "input %q", tt.input)
	}
}

func TestTierDailyLimit(t *testing.T) {
	assert.Equal(t, 5, TierBasic.DailyLimit())
	assert.Equal(t, 8, TierPremium.DailyLimit())
	assert.Equal(t, 12, TierVIP.DailyLimit())
	assert.Equal(t, 5, Tier("unknown").DailyLimit())
}

func TestClamp(t *testing.T) {
	t.Run("in-range values pass through", func(t *testing.T) {
		in := Estimate{Calories: 500, Protein: 30, Carbs: 60, Fats: 20, Confidence: 0.8}
		assert.Equal(t, in, Clamp(in))
	})

	t.Run("values above bounds truncate", func(t *testing.T) {
		got := Clamp(Estimate{Calories: 9000, Protein: 500, Carbs: 800, Fats: 300, Confidence: 1.5})
		assert.Equal(t, MaxCalories, got.Calories)
		assert.Equal(t, MaxProtein, got.Protein)
		assert.Equal(t, MaxCarbs, got.Carbs)
		assert.Equal(t, MaxFats, got.Fats)
		assert.Equal(t, 1.0, got.Confidence)
	})

	t.Run("negative values floor at zero", func(t *testing.T) {
		got := Clamp(Estimate{Calories: -10, Protein: -1, Carbs: -5, Fats: -2, Confidence: -0.3})
		assert.Equal(t, 0.0, got.Calories)
		assert.Equal(t, 0.0, got.Protein)
		assert.Equal(t, 0.0, got.Carbs)
		assert.Equal(t, 0.0, got.Fats)
		assert.Equal(t, 0.0, got.Confidence)
	})
}

func TestDefaultEstimate(t *testing.T) {
	est := DefaultEstimate()

	assert.True(t, est.Degraded)
	assert.Equal(t, 250.0, est.Calories)
	assert.NotNil(t, est.DetectedFoods)
	assert.Empty(t, est.DetectedFoods)

	// Default must already satisfy its own bounds.
	assert.Equal(t, *est, Clamp(*est))
}
