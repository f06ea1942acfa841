package quota

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore implements Store with atomic INCR counters that expire shortly
// after the day they belong to.
type redisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed usage store.
func NewRedisStore(client redis.UniversalClient) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Usage(ctx context.Context, userID string, day time.Time) (int, error) {
	val, err := s.client.Get(ctx, usageKey(userID, day)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

func (s *redisStore) Increment(ctx context.Context, userID string, day time.Time) (int, error) {
	key := usageKey(userID, day)

	val, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	// Expire at the following midnight UTC plus a day of slack, so
	// yesterday's counters clean themselves up.
	day = day.UTC()
	endOfDay := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, time.UTC)
	if ttl := time.Until(endOfDay) + 24*time.Hour; ttl > 0 {
		s.client.Expire(ctx, key, ttl)
	}

	return int(val), nil
}

var _ Store = (*redisStore)(nil)
