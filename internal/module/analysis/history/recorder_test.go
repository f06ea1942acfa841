package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmetric/server/internal/module/analysis/meal"
)

// captureRepo collects created records in memory.
type captureRepo struct {
	mu      sync.Mutex
	records []*Record
}

func (r *captureRepo) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *captureRepo) ListByUserAndDay(_ context.Context, userID, day string) ([]*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Record
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Day == day {
			out = append(out, rec)
		}
	}
	return out, nil
}

func TestRecorder(t *testing.T) {
	day := time.Date(2026, 8, 30, 18, 30, 0, 0, time.UTC)
	est := &meal.Estimate{
		Calories:      540,
		Protein:       25,
		Confidence:    0.82,
		DetectedFoods: []string{"burrito", "rice"},
		Description:   "Beef burrito",
	}

	t.Run("records are flushed on close", func(t *testing.T) {
		repo := &captureRepo{}
		rec := NewRecorder(repo, nil, 8)

		rec.Record("u1", "hash-1", day, est)
		rec.Record("u1", "hash-2", day, est)
		rec.Close()

		require.Len(t, repo.records, 2)
		got := repo.records[0]
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, "2026-08-30", got.Day)
		assert.Equal(t, "burrito,rice", got.DetectedFoods)
		assert.Equal(t, 540.0, got.Calories)
		assert.NotEqual(t, got.ID, repo.records[1].ID)
	})

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		repo := &captureRepo{}
		rec := NewRecorder(repo, nil, 1)

		// Many more records than the buffer holds; Record must return
		// promptly regardless of how many survive.
		done := make(chan struct{})
		go func() {
			for i := 0; i < 50; i++ {
				rec.Record("u1", "hash", day, est)
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Record blocked on a full buffer")
		}
		rec.Close()
	})

	t.Run("nil recorder is a no-op", func(t *testing.T) {
		var rec *Recorder
		assert.NotPanics(t, func() {
			rec.Record("u1", "hash", day, est)
			rec.Close()
		})
	})
}
