package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/gemora/pkg/config"
	"github.com/go-redis/redis/v8"
)

// cacheNamespace is prepended to every key so several deployments can
// share one Redis database.
const cacheNamespace = "gemora:"

// RedisCache implements Cache on Redis. Values are stored as JSON.
type RedisCache struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisCache(cfg *config.RedisConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cacheNamespace+key, data, expiration).Err()
}

// GetJSON decodes the value at key into dest and reports whether it existed.
func (r *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, cacheNamespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, dest)
}

func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = cacheNamespace + k
	}
	return r.client.Del(ctx, namespaced...).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
