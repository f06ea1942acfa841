package history

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mealmetric/server/internal/module/analysis/meal"
)

// Recorder persists analysis records asynchronously so a slow database never
// delays the analysis response.
type Recorder struct {
	repo   Repository
	logger *zap.Logger
	buffer chan *Record
	wg     sync.WaitGroup
	done   chan struct{}
}

// NewRecorder creates a recorder and starts its worker.
func NewRecorder(repo Repository, logger *zap.Logger, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recorder{
		repo:   repo,
		logger: logger,
		buffer: make(chan *Record, bufferSize),
		done:   make(chan struct{}),
	}
	r.start()
	return r
}

// Record queues one completed analysis for persistence. A nil recorder is a
// no-op, so history stays optional in redis-only deployments.
func (r *Recorder) Record(userID, imageHash string, day time.Time, est *meal.Estimate) {
	if r == nil {
		return
	}
	rec := &Record{
		ID:            uuid.New(),
		UserID:        userID,
		Day:           day.UTC().Format("2006-01-02"),
		ImageHash:     imageHash,
		Calories:      est.Calories,
		Protein:       est.Protein,
		Carbs:         est.Carbs,
		Fats:          est.Fats,
		Confidence:    est.Confidence,
		DetectedFoods: strings.Join(est.DetectedFoods, ","),
		Description:   est.Description,
		Degraded:      est.Degraded,
	}

	select {
	case r.buffer <- rec:
	default:
		r.logger.Warn("history buffer full, dropping record",
			zap.String("user_id", userID))
	}
}

// Close stops the recorder and flushes remaining records.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	close(r.done)
	r.wg.Wait()
}

func (r *Recorder) start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case rec := <-r.buffer:
				r.persist(rec)
			case <-r.done:
				for {
					select {
					case rec := <-r.buffer:
						r.persist(rec)
					default:
						return
					}
				}
			}
		}
	}()
}

func (r *Recorder) persist(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.repo.Create(ctx, rec); err != nil {
		r.logger.Error("failed to persist analysis record",
			zap.Error(err), zap.String("user_id", rec.UserID))
	}
}
