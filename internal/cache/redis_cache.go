package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const redisKeyPrefix = "artifact:"

// RedisStore is the subset of the Redis client the cache layer needs.
type RedisStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache is a shared layer backed by Redis.
type RedisCache struct {
	client RedisStore
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisCache(client RedisStore, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (rc *RedisCache) Name() string {
	return "redis"
}

func (rc *RedisCache) Get(ctx context.Context, id uuid.UUID) ([]byte, error) {
	data, err := rc.client.GetBytes(ctx, redisKey(id))
	if err != nil {
		rc.misses.Add(1)
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if data == nil {
		rc.misses.Add(1)
		return nil, ErrMiss
	}
	rc.hits.Add(1)
	return data, nil
}

func (rc *RedisCache) Set(ctx context.Context, id uuid.UUID, data []byte) error {
	if err := rc.client.SetBytes(ctx, redisKey(id), data, rc.ttl); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}
	return nil
}

func (rc *RedisCache) Delete(ctx context.Context, id uuid.UUID) error {
	return rc.client.Delete(ctx, redisKey(id))
}

func (rc *RedisCache) Clear(ctx context.Context) error {
	keys, err := rc.client.Keys(ctx, redisKeyPrefix+"*")
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := rc.client.Delete(ctx, keys...); err != nil {
			return err
		}
	}
	rc.hits.Store(0)
	rc.misses.Store(0)
	return nil
}

func (rc *RedisCache) Stats(ctx context.Context) LayerStats {
	hits, misses := rc.hits.Load(), rc.misses.Load()
	keys, _ := rc.client.Keys(ctx, redisKeyPrefix+"*")
	return LayerStats{
		Name:    rc.Name(),
		Objects: len(keys),
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate(hits, misses),
	}
}

func redisKey(id uuid.UUID) string {
	return redisKeyPrefix + id.String()
}
