package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Cache backed by a Redis server. Keys are namespaced with prefix
// so several deployments can share one database.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// RedisOptions holds connection settings for NewRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedis creates a Redis cache. The connection is established lazily;
// call Ping to verify it.
func NewRedis(opts RedisOptions) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Redis{rdb: rdb, prefix: opts.Prefix}
}

// Get returns the stored value, or ErrMiss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return b, nil
}

// Set stores val with ttl. A non-positive ttl deletes the key.
func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		return nil
	}
	if err := r.rdb.Set(ctx, r.prefix+key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// TTL reports the remaining lifetime of key.
func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	return r.rdb.TTL(ctx, r.prefix+key).Result()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
