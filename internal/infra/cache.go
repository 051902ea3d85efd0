package infra

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"trip/internal/config"
	mem "trip/pkg/memcache"
)

// Cache is a byte cache that behaves like a miss whenever the backend is unavailable.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NewCache returns a redis cache when REDIS_ADDR is set, else an in-memory one.
func NewCache(cfg *config.Config) Cache {
	if cfg.RedisAddr == "" {
		return mem.NewStore()
	}
	return NewRedisCache(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
}

// RedisCache wraps redis.Client but fails safe by swallowing connectivity errors.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil or backend down: both are a miss
		return nil, nil
	}
	return res, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = c.client.Set(ctx, key, value, ttl).Err()
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	_ = c.client.Del(ctx, key).Err()
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
