package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmetric/server/internal/module/analysis/adapter"
	"github.com/mealmetric/server/internal/module/analysis/aggregate"
	"github.com/mealmetric/server/internal/module/analysis/cache"
	"github.com/mealmetric/server/internal/module/analysis/imagestore"
	"github.com/mealmetric/server/internal/module/analysis/meal"
	"github.com/mealmetric/server/internal/module/analysis/quota"
	apperrors "github.com/mealmetric/server/internal/shared/errors"
)

var testDay = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

// stubAdapter is a scripted provider for pipeline tests.
type stubAdapter struct {
	name  string
	out   *adapter.Output
	err   error
	calls int
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Analyze(context.Context, []byte, string) (*adapter.Output, error) {
	s.calls++
	return s.out, s.err
}

type testEnv struct {
	service *Service
	cache   cache.Store
	quota   *quota.Manager
	images  *imagestore.MemoryStore
}

func newTestEnv(t *testing.T, adapters ...adapter.Adapter) *testEnv {
	t.Helper()

	images := imagestore.NewMemoryStore()
	images.Add("meal.jpg", []byte("meal-image-bytes"))

	cacheStore := cache.NewMemoryStore(cache.DefaultTTL)
	quotaMgr := quota.NewManager(quota.NewMemoryStore(), true, nil)

	return &testEnv{
		service: New(Deps{
			Adapters:   adapters,
			Images:     images,
			Cache:      cacheStore,
			Quota:      quotaMgr,
			Aggregator: aggregate.New(nil),
			Now:        func() time.Time { return testDay },
		}),
		cache:  cacheStore,
		quota:  quotaMgr,
		images: images,
	}
}

func basicRequest(description string) *meal.Request {
	return &meal.Request{
		ImageRef:    "meal.jpg",
		Description: description,
		UserID:      "u1",
		Tier:        meal.TierBasic,
	}
}

func labelOutput() *adapter.Output {
	return &adapter.Output{Labels: []adapter.Label{
		{Label: "pizza", Confidence: 0.8},
		{Label: "salad", Confidence: 0.15},
	}}
}

func TestAnalyzeProviderSuccess(t *testing.T) {
	primary := &stubAdapter{name: "classifier", out: labelOutput()}
	secondary := &stubAdapter{name: "generative"}
	env := newTestEnv(t, primary, secondary)

	est, err := env.service.Analyze(context.Background(), basicRequest(""))
	require.NoError(t, err)

	assert.False(t, est.Degraded)
	assert.Contains(t, est.DetectedFoods, "pizza")
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls, "chain stops at the first usable output")

	used, err := env.quota.Usage(context.Background(), "u1", testDay)
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestAnalyzeFallbackOrdering(t *testing.T) {
	t.Run("failed provider advances to the next", func(t *testing.T) {
		primary := &stubAdapter{name: "classifier", err: errors.New("boom")}
		secondary := &stubAdapter{name: "generative", out: &adapter.Output{
			Estimate: &meal.Estimate{Calories: 540, Protein: 25, Confidence: 0.82},
		}}
		env := newTestEnv(t, primary, secondary)

		est, err := env.service.Analyze(context.Background(), basicRequest(""))
		require.NoError(t, err)

		assert.Equal(t, 540.0, est.Calories)
		assert.False(t, est.Degraded)
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 1, secondary.calls)
	})

	t.Run("unusable output advances like a failure", func(t *testing.T) {
		primary := &stubAdapter{name: "classifier", out: &adapter.Output{}}
		secondary := &stubAdapter{name: "generative", out: &adapter.Output{
			Estimate: &meal.Estimate{Calories: 300},
		}}
		env := newTestEnv(t, primary, secondary)

		est, err := env.service.Analyze(context.Background(), basicRequest(""))
		require.NoError(t, err)
		assert.Equal(t, 300.0, est.Calories)
		assert.Equal(t, 1, secondary.calls)
	})
}

func TestAnalyzeTotalOutage(t *testing.T) {
	t.Run("description heuristic serves", func(t *testing.T) {
		primary := &stubAdapter{name: "classifier", err: errors.New("down")}
		secondary := &stubAdapter{name: "generative", err: errors.New("down")}
		env := newTestEnv(t, primary, secondary)

		est, err := env.service.Analyze(context.Background(), basicRequest("huevos rancheros"))
		require.NoError(t, err, "provider outages never surface to the caller")

		assert.True(t, est.Degraded)
		assert.Equal(t, 150.0, est.Calories)
		assert.LessOrEqual(t, est.Confidence, 0.6)
	})

	t.Run("no description falls to the generic default", func(t *testing.T) {
		primary := &stubAdapter{name: "classifier", err: errors.New("down")}
		env := newTestEnv(t, primary)

		est, err := env.service.Analyze(context.Background(), basicRequest(""))
		require.NoError(t, err)

		assert.True(t, est.Degraded)
		assert.Equal(t, meal.DefaultEstimate().Calories, est.Calories)
	})

	t.Run("degraded results still count against quota and cache", func(t *testing.T) {
		primary := &stubAdapter{name: "classifier", err: errors.New("down")}
		env := newTestEnv(t, primary)
		ctx := context.Background()

		_, err := env.service.Analyze(ctx, basicRequest(""))
		require.NoError(t, err)

		used, err := env.quota.Usage(ctx, "u1", testDay)
		require.NoError(t, err)
		assert.Equal(t, 1, used)

		key := cache.Key(cache.ContentHash([]byte("meal-image-bytes"), "meal.jpg"), testDay)
		_, ok, err := env.cache.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestAnalyzeQuotaGate(t *testing.T) {
	primary := &stubAdapter{name: "classifier", out: labelOutput()}
	env := newTestEnv(t, primary)
	ctx := context.Background()

	for i := 0; i < meal.TierBasic.DailyLimit(); i++ {
		env.quota.Record(ctx, "u1", testDay)
	}

	_, err := env.service.Analyze(ctx, basicRequest(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)
	assert.Equal(t, 0, primary.calls, "quota gate precedes every provider call")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "QUOTA_EXCEEDED", appErr.Code)
}

func TestAnalyzeCacheHit(t *testing.T) {
	ctx := context.Background()

	t.Run("repeat analysis skips providers and quota", func(t *testing.T) {
		primary := &stubAdapter{name: "classifier", out: labelOutput()}
		env := newTestEnv(t, primary)

		first, err := env.service.Analyze(ctx, basicRequest(""))
		require.NoError(t, err)

		second, err := env.service.Analyze(ctx, basicRequest(""))
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, primary.calls)

		used, err := env.quota.Usage(ctx, "u1", testDay)
		require.NoError(t, err)
		assert.Equal(t, 1, used, "cache hits do not consume quota")
	})

	t.Run("cached result serves even over quota", func(t *testing.T) {
		primary := &stubAdapter{name: "classifier", out: labelOutput()}
		env := newTestEnv(t, primary)

		_, err := env.service.Analyze(ctx, basicRequest(""))
		require.NoError(t, err)

		for i := 0; i < meal.TierBasic.DailyLimit(); i++ {
			env.quota.Record(ctx, "u1", testDay)
		}

		est, err := env.service.Analyze(ctx, basicRequest(""))
		require.NoError(t, err, "the cache lookup runs before the quota gate")
		assert.NotNil(t, est)
	})
}

func TestAnalyzeBreakerSkipsTrippedProvider(t *testing.T) {
	primary := &stubAdapter{name: "classifier", err: errors.New("down")}
	env := newTestEnv(t, primary)
	env.service = New(Deps{
		Adapters:         []adapter.Adapter{primary},
		Images:           env.images,
		Cache:            cache.NewMemoryStore(cache.DefaultTTL),
		Quota:            env.quota,
		Aggregator:       aggregate.New(nil),
		Now:              func() time.Time { return testDay },
		BreakerThreshold: 1,
	})
	ctx := context.Background()

	// Distinct users so each request misses the cache.
	req1 := basicRequest("")
	req1.UserID = "u1"
	req1.ImageRef = "meal.jpg"

	_, err := env.service.Analyze(ctx, req1)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)

	env.images.Add("other.jpg", []byte("other-bytes"))
	req2 := basicRequest("")
	req2.ImageRef = "other.jpg"

	_, err = env.service.Analyze(ctx, req2)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls, "open breaker skips the provider entirely")
}

func TestAnalyzeMissingImage(t *testing.T) {
	primary := &stubAdapter{name: "classifier", err: errors.New("down")}
	env := newTestEnv(t, primary)

	req := basicRequest("chicken salad")
	req.ImageRef = "nonexistent.jpg"

	est, err := env.service.Analyze(context.Background(), req)
	require.NoError(t, err, "a missing image degrades, it does not fail")
	assert.True(t, est.Degraded)
}

func TestAnalyzeCancelledContext(t *testing.T) {
	primary := &stubAdapter{name: "classifier", out: labelOutput()}
	env := newTestEnv(t, primary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.service.Analyze(ctx, basicRequest(""))
	require.Error(t, err)

	used, qerr := env.quota.Usage(context.Background(), "u1", testDay)
	require.NoError(t, qerr)
	assert.Equal(t, 0, used, "abandoned requests are not billed")
}
