package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-based implementation of ResultStore
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	prefix  string
	timeout time.Duration
}

// NewRedisStore creates a new Redis-based result store
func NewRedisStore(address, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	s := newRedisStore(client, ttl)

	ctx, cancel := s.context()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return s, nil
}

func newRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		ttl:     ttl,
		prefix:  "secure-mask:r:",
		timeout: 2 * time.Second,
	}
}

func (r *RedisStore) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

// Store saves a masked result with the configured TTL
func (r *RedisStore) Store(key, masked string) error {
	ctx, cancel := r.context()
	defer cancel()

	return r.client.Set(ctx, r.prefix+key, masked, r.ttl).Err()
}

// Lookup retrieves a masked result and refreshes its TTL
func (r *RedisStore) Lookup(key string) (string, bool) {
	ctx, cancel := r.context()
	defer cancel()

	masked, err := r.client.GetEx(ctx, r.prefix+key, r.ttl).Result()
	if err != nil {
		// redis.Nil on a miss, anything else is treated as a miss too
		return "", false
	}

	return masked, true
}

// Cleanup is a no-op for Redis as TTL handles expiration
func (r *RedisStore) Cleanup() error {
	return nil
}

// Size returns the approximate number of stored entries
func (r *RedisStore) Size() int {
	ctx, cancel := r.context()
	defer cancel()

	var count int
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if iter.Err() != nil {
		return 0
	}
	return count
}

// Ping checks the Redis connection
func (r *RedisStore) Ping() error {
	ctx, cancel := r.context()
	defer cancel()

	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
