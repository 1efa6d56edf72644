package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"weekcal/internal/model"
)

const redisKeyPrefix = "weekcal:schedule:"

// RedisStore keeps schedules in Redis as JSON values with a server-side
// TTL, so expiry needs no sweeping and state survives process restarts.
type RedisStore struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

// NewRedisStore creates a RedisStore with the given entry lifetime.
func NewRedisStore(rdb goredis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*model.Schedule, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: redis get: %w", err)
	}

	var sched model.Schedule
	if err := json.Unmarshal(data, &sched); err != nil {
		return nil, fmt.Errorf("store: bad schedule payload: %w", err)
	}
	return &sched, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, sched *model.Schedule) error {
	data, err := json.Marshal(sched)
	if err != nil {
		return fmt.Errorf("store: marshal schedule: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("store: redis del: %w", err)
	}
	return nil
}
