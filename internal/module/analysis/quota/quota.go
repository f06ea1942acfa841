// Package quota tracks per-user daily analysis counts against tier-derived
// limits. Records are keyed on the calendar date, so a new day implicitly
// starts from a fresh zero count.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mealmetric/server/internal/module/analysis/meal"
)

// ErrDailyQuotaExceeded reports that the user's tier limit for today is
// already spent.
var ErrDailyQuotaExceeded = errors.New("daily analysis quota exceeded")

// Store persists per-user, per-day counters.
type Store interface {
	// Usage returns the count for a user on a given day. Absent records
	// read as zero.
	Usage(ctx context.Context, userID string, day time.Time) (int, error)

	// Increment atomically bumps the counter and returns the new value.
	Increment(ctx context.Context, userID string, day time.Time) (int, error)
}

// Manager checks and records usage. Enforcement is a deployment choice;
// with enforcement off, usage is still recorded but never gates a request.
type Manager struct {
	store   Store
	enforce bool
	logger  *zap.Logger
}

// NewManager creates a quota manager.
func NewManager(store Store, enforce bool, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, enforce: enforce, logger: logger}
}

// Check returns ErrDailyQuotaExceeded when the user has spent today's limit.
// The tier limit is read fresh on every call, so tier changes apply on the
// next request. A store error allows the request rather than blocking it.
func (m *Manager) Check(ctx context.Context, userID string, tier meal.Tier, day time.Time) error {
	if !m.enforce {
		return nil
	}

	used, err := m.store.Usage(ctx, userID, day)
	if err != nil {
		m.logger.Warn("quota store error during check, allowing request",
			zap.Error(err), zap.String("user_id", userID))
		return nil
	}
	if used >= tier.DailyLimit() {
		return ErrDailyQuotaExceeded
	}
	return nil
}

// Record counts one completed analysis for the user.
func (m *Manager) Record(ctx context.Context, userID string, day time.Time) {
	if _, err := m.store.Increment(ctx, userID, day); err != nil {
		m.logger.Error("failed to increment usage counter",
			zap.Error(err), zap.String("user_id", userID))
	}
}

// Usage exposes today's count for the usage endpoint.
func (m *Manager) Usage(ctx context.Context, userID string, day time.Time) (int, error) {
	return m.store.Usage(ctx, userID, day)
}

// usageKey builds the per-user, per-day counter key.
func usageKey(userID string, day time.Time) string {
	return fmt.Sprintf("usage:%s:%s", userID, day.UTC().Format("2006-01-02"))
}
