package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmetric/server/internal/module/analysis/meal"
)

var day = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

// failingStore simulates an unavailable backing store.
type failingStore struct{}

func (failingStore) Usage(context.Context, string, time.Time) (int, error) {
	return 0, errors.New("store unavailable")
}

func (failingStore) Increment(context.Context, string, time.Time) (int, error) {
	return 0, errors.New("store unavailable")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("absent record reads zero", func(t *testing.T) {
		used, err := store.Usage(ctx, "u1", day)
		require.NoError(t, err)
		assert.Equal(t, 0, used)
	})

	t.Run("increments are monotonic", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			n, err := store.Increment(ctx, "u1", day)
			require.NoError(t, err)
			assert.Equal(t, i, n)
		}
	})

	t.Run("days are independent", func(t *testing.T) {
		used, err := store.Usage(ctx, "u1", day.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, 0, used, "a new day starts from zero")
	})

	t.Run("users are independent", func(t *testing.T) {
		used, err := store.Usage(ctx, "u2", day)
		require.NoError(t, err)
		assert.Equal(t, 0, used)
	})
}

func TestManagerCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("under limit allows", func(t *testing.T) {
		m := NewManager(NewMemoryStore(), true, nil)
		assert.NoError(t, m.Check(ctx, "u1", meal.TierBasic, day))
	})

	t.Run("at limit rejects", func(t *testing.T) {
		store := NewMemoryStore()
		m := NewManager(store, true, nil)
		for i := 0; i < meal.TierBasic.DailyLimit(); i++ {
			m.Record(ctx, "u1", day)
		}
		assert.ErrorIs(t, m.Check(ctx, "u1", meal.TierBasic, day), ErrDailyQuotaExceeded)
	})

	t.Run("higher tier limit applies immediately", func(t *testing.T) {
		store := NewMemoryStore()
		m := NewManager(store, true, nil)
		for i := 0; i < meal.TierBasic.DailyLimit(); i++ {
			m.Record(ctx, "u1", day)
		}
		// Same counter, upgraded tier: more headroom on the next check.
		assert.ErrorIs(t, m.Check(ctx, "u1", meal.TierBasic, day), ErrDailyQuotaExceeded)
		assert.NoError(t, m.Check(ctx, "u1", meal.TierPremium, day))
	})

	t.Run("new day resets the gate", func(t *testing.T) {
		store := NewMemoryStore()
		m := NewManager(store, true, nil)
		for i := 0; i < meal.TierBasic.DailyLimit(); i++ {
			m.Record(ctx, "u1", day)
		}
		assert.NoError(t, m.Check(ctx, "u1", meal.TierBasic, day.AddDate(0, 0, 1)))
	})

	t.Run("enforcement off never rejects", func(t *testing.T) {
		store := NewMemoryStore()
		m := NewManager(store, false, nil)
		for i := 0; i < 100; i++ {
			m.Record(ctx, "u1", day)
		}
		assert.NoError(t, m.Check(ctx, "u1", meal.TierBasic, day))
	})

	t.Run("store error allows the request", func(t *testing.T) {
		m := NewManager(failingStore{}, true, nil)
		assert.NoError(t, m.Check(ctx, "u1", meal.TierBasic, day))
	})
}

func TestManagerUsage(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), true, nil)

	m.Record(ctx, "u1", day)
	m.Record(ctx, "u1", day)

	used, err := m.Usage(ctx, "u1", day)
	require.NoError(t, err)
	assert.Equal(t, 2, used)
}

func TestUsageKey(t *testing.T) {
	key := usageKey("u1", day)
	assert.Equal(t, "usage:u1:2026-08-30", key)

	// Key is derived from the UTC calendar date.
	late := time.Date(2026, 8, 30, 23, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))
	assert.Equal(t, "usage:u1:2026-08-30", usageKey("u1", late))
}
