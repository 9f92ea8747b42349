package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache — реализация SessionCache поверх Redis.
type redisCache struct {
	rdb *redis.Client
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
func NewRedisCache(ctx context.Context, redisURL string) (SessionCache, error) {
	const op = "cache.redis.NewRedisCache"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &redisCache{rdb: rdb}, nil
}

func (c *redisCache) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "cache.redis.Put"

	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	const op = "cache.redis.Get"

	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, ErrCacheMiss)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return val, nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	const op = "cache.redis.Delete"

	if len(keys) == 0 {
		return nil
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteByPattern удаляет ключи по шаблону через SCAN (не KEYS:
// KEYS блокирует Redis на больших пространствах ключей).
func (c *redisCache) DeleteByPattern(ctx context.Context, pattern string) error {
	const op = "cache.redis.DeleteByPattern"

	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *redisCache) Close() error {
	return c.rdb.Close()
}
