package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by read operations when no Redis address is configured.
var ErrDisabled = errors.New("cache not enabled")

// ErrMiss is returned when a key is absent.
var ErrMiss = errors.New("cache miss")

// Client defines the cache and stream operations used across the server.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	StreamAdd(ctx context.Context, stream string, maxLen int64, values map[string]interface{}) error
	Enabled() bool
	Close() error
}

// RedisClient is a wrapper around the Redis client.
type RedisClient struct {
	client  *redis.Client
	enabled bool
}

// NewRedisClient creates a new Redis cache client. An empty addr yields a
// disabled client whose writes are no-ops.
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	if addr == "" {
		return &RedisClient{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{
		client:  client,
		enabled: true,
	}, nil
}

// Enabled reports whether a Redis backend is configured.
func (r *RedisClient) Enabled() bool {
	return r.enabled
}

// Get retrieves a value from cache.
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	if !r.enabled {
		return nil, ErrDisabled
	}

	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return value, err
}

// Set stores a value in cache with expiration. Silently skipped when disabled.
func (r *RedisClient) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if !r.enabled {
		return nil
	}

	return r.client.Set(ctx, key, value, expiration).Err()
}

// Delete removes keys from cache.
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if !r.enabled || len(keys) == 0 {
		return nil
	}

	return r.client.Del(ctx, keys...).Err()
}

// StreamAdd appends an entry to a capped Redis stream.
func (r *RedisClient) StreamAdd(ctx context.Context, stream string, maxLen int64, values map[string]interface{}) error {
	if !r.enabled {
		return ErrDisabled
	}

	return r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxLen,
		Approx: true,
		Values: values,
	}).Err()
}

// Close releases the underlying connection pool.
func (r *RedisClient) Close() error {
	if !r.enabled {
		return nil
	}
	return r.client.Close()
}
