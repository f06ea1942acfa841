package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	t.Run("keyword match", func(t *testing.T) {
		est, ok := Estimate("huevos rancheros con tortilla")
		require.True(t, ok)
		assert.Equal(t, 150.0, est.Calories)
		assert.Equal(t, 12.0, est.Protein)
		assert.Equal(t, 0.5, est.Confidence)
		assert.True(t, est.Degraded)
		assert.Equal(t, []string{"huevos"}, est.DetectedFoods)
	})

	t.Run("case insensitive", func(t *testing.T) {
		est, ok := Estimate("Grilled CHICKEN with vegetables")
		require.True(t, ok)
		assert.Equal(t, 220.0, est.Calories)
	})

	t.Run("first match wins", func(t *testing.T) {
		// Both eggs and rice appear; eggs is earlier in the table.
		est, ok := Estimate("fried rice with eggs")
		require.True(t, ok)
		assert.Equal(t, []string{"eggs"}, est.DetectedFoods)
	})

	t.Run("empty description", func(t *testing.T) {
		est, ok := Estimate("")
		assert.False(t, ok)
		assert.Nil(t, est)
	})

	t.Run("no keyword match", func(t *testing.T) {
		est, ok := Estimate("mystery casserole")
		assert.False(t, ok)
		assert.Nil(t, est)
	})
}
