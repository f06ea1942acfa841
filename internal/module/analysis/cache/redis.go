package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mealmetric/server/internal/module/analysis/meal"
)

// redisStore implements Store on Redis with a TTL bounding entry lifetime.
type redisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed result cache.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Get(ctx context.Context, key string) (*meal.Estimate, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get from cache: %w", err)
	}

	var est meal.Estimate
	if err := json.Unmarshal(data, &est); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached estimate: %w", err)
	}
	return &est, true, nil
}

func (s *redisStore) Put(ctx context.Context, key string, est *meal.Estimate) error {
	data, err := json.Marshal(est)
	if err != nil {
		return fmt.Errorf("marshal estimate: %w", err)
	}

	// SETNX keeps the cache additive-only under concurrent writers.
	if err := s.client.SetNX(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set in cache: %w", err)
	}
	return nil
}

var _ Store = (*redisStore)(nil)
