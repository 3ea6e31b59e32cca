package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache: birden fazla API instance'ı aynı önbelleği paylaşsın diye
// Redis üzerinde tutulan önbellek.
type RedisCache struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string, dest any) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("önbellek okunamadı", "key", key, "error", err)
		}
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.Warn("önbellek yazılamadı", "key", key, "error", err)
	}
}

func (r *RedisCache) Remove(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		slog.Warn("önbellek silinemedi", "key", key, "error", err)
	}
}
