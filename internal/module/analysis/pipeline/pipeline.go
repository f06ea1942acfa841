// Package pipeline orchestrates meal analysis: cache lookup, quota gate,
// ordered provider fallback, aggregation, and bookkeeping. The pipeline is
// total except for the quota gate: every request under quota receives an
// estimate, degraded or not.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/mealmetric/server/internal/module/analysis/adapter"
	"github.com/mealmetric/server/internal/module/analysis/aggregate"
	"github.com/mealmetric/server/internal/module/analysis/cache"
	"github.com/mealmetric/server/internal/module/analysis/heuristic"
	"github.com/mealmetric/server/internal/module/analysis/history"
	"github.com/mealmetric/server/internal/module/analysis/imagestore"
	"github.com/mealmetric/server/internal/module/analysis/meal"
	"github.com/mealmetric/server/internal/module/analysis/quota"
	apperrors "github.com/mealmetric/server/internal/shared/errors"
	"github.com/mealmetric/server/internal/utils/metrics"
)

// Stage names reported in logs and metrics.
const (
	StageCache     = "cache"
	StageHeuristic = "heuristic"
	StageDefault   = "default"
)

// Deps bundles the pipeline's collaborators. Adapters are tried strictly in
// slice order; the fallback order is configuration, not mutable state.
type Deps struct {
	Adapters   []adapter.Adapter
	Images     imagestore.Store
	Cache      cache.Store
	Quota      *quota.Manager
	Aggregator *aggregate.Aggregator

	History *history.Recorder // optional
	Metrics *metrics.Metrics  // optional
	Logger  *zap.Logger       // optional
	Now     func() time.Time  // optional, defaults to time.Now

	BreakerThreshold uint32        // consecutive failures before a provider is skipped
	BreakerTimeout   time.Duration // how long a tripped provider stays skipped
}

// Service is the analysis pipeline façade.
type Service struct {
	adapters   []adapter.Adapter
	breakers   map[string]*gobreaker.CircuitBreaker[*adapter.Output]
	images     imagestore.Store
	cache      cache.Store
	quota      *quota.Manager
	aggregator *aggregate.Aggregator
	history    *history.Recorder
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// New creates the pipeline service.
func New(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.BreakerThreshold == 0 {
		deps.BreakerThreshold = 3
	}
	if deps.BreakerTimeout <= 0 {
		deps.BreakerTimeout = 60 * time.Second
	}

	s := &Service{
		adapters:   deps.Adapters,
		breakers:   make(map[string]*gobreaker.CircuitBreaker[*adapter.Output], len(deps.Adapters)),
		images:     deps.Images,
		cache:      deps.Cache,
		quota:      deps.Quota,
		aggregator: deps.Aggregator,
		history:    deps.History,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Now,
	}

	threshold := deps.BreakerThreshold
	for _, a := range deps.Adapters {
		s.breakers[a.Name()] = gobreaker.NewCircuitBreaker[*adapter.Output](gobreaker.Settings{
			Name:        a.Name(),
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     deps.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		})
	}

	return s
}

// Analyze runs one meal analysis. The only caller-visible failures are the
// quota gate and caller cancellation; every other fault degrades internally.
func (s *Service) Analyze(ctx context.Context, req *meal.Request) (*meal.Estimate, error) {
	now := s.now()

	image, err := s.images.Fetch(ctx, req.ImageRef)
	if err != nil {
		// Providers will fail on an empty image and the text fallbacks
		// still serve; the ref keys the cache instead of the content.
		s.logger.Warn("image fetch failed, continuing without bytes",
			zap.Error(err), zap.String("image_ref", req.ImageRef))
	}
	hash := cache.ContentHash(image, req.ImageRef)
	key := cache.Key(hash, now)

	if est, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("cache read failed", zap.Error(err))
	} else if ok {
		// Re-viewing a result already paid for: no quota check, no
		// provider call, no counter increment.
		if s.metrics != nil {
			s.metrics.RecordCacheHit("analysis")
			s.metrics.RecordAnalysis(StageCache, est.Degraded)
		}
		return est, nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss("analysis")
	}

	if err := s.quota.Check(ctx, req.UserID, req.Tier, now); err != nil {
		if s.metrics != nil {
			s.metrics.RecordQuotaRejection()
		}
		return nil, apperrors.QuotaExceeded("daily analysis limit reached")
	}

	est, stage := s.estimate(ctx, image, req.Description)

	// An abandoned request must not bill the user or seed the cache with
	// a result nobody validated against the caller's expectations.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, key, est); err != nil {
		s.logger.Warn("cache write failed", zap.Error(err))
	}
	s.quota.Record(ctx, req.UserID, now)
	s.history.Record(req.UserID, hash, now, est)

	if s.metrics != nil {
		s.metrics.RecordAnalysis(stage, est.Degraded)
	}
	s.logger.Info("meal analysis completed",
		zap.String("user_id", req.UserID),
		zap.String("stage", stage),
		zap.Bool("degraded", est.Degraded),
		zap.Float64("calories", est.Calories),
	)

	return est, nil
}

// estimate walks the fallback chain. It cannot fail: the terminal default
// always produces a clamped estimate.
func (s *Service) estimate(ctx context.Context, image []byte, description string) (*meal.Estimate, string) {
	for _, a := range s.adapters {
		out, err := s.callProvider(ctx, a, image, description)
		if err != nil {
			s.logger.Warn("provider stage failed, advancing fallback",
				zap.String("provider", a.Name()),
				zap.String("kind", string(adapter.Kind(err))),
				zap.Error(err))
			continue
		}
		if est := s.aggregator.Aggregate(out); est != nil {
			return est, a.Name()
		}
		s.logger.Warn("provider output failed validation, advancing fallback",
			zap.String("provider", a.Name()))
	}

	if est, ok := heuristic.Estimate(description); ok {
		return est, StageHeuristic
	}
	return meal.DefaultEstimate(), StageDefault
}

// callProvider invokes one adapter behind its circuit breaker. An open
// breaker reads as a provider failure and advances the chain immediately.
func (s *Service) callProvider(ctx context.Context, a adapter.Adapter, image []byte, description string) (*adapter.Output, error) {
	start := time.Now()
	out, err := s.breakers[a.Name()].Execute(func() (*adapter.Output, error) {
		return a.Analyze(ctx, image, description)
	})

	if s.metrics != nil {
		outcome := "ok"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "breaker_open"
		case err != nil:
			outcome = string(adapter.Kind(err))
		}
		s.metrics.RecordProviderCall(a.Name(), outcome, time.Since(start))
	}

	return out, err
}
