package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "newsreel:seen:"

// RedisIndex is an Index backend on Redis. First-seen expiry maps directly
// onto SET NX with a TTL: only the first admit sets the key, and Redis evicts
// it maxAge after that moment regardless of rediscoveries.
type RedisIndex struct {
	client *redis.Client
	maxAge time.Duration
}

var _ Index = (*RedisIndex)(nil)

// NewRedisIndex connects to Redis and verifies the connection.
func NewRedisIndex(ctx context.Context, addr string, db int, maxAge time.Duration) (*RedisIndex, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed (%s): %w", addr, err)
	}
	return &RedisIndex{client: client, maxAge: maxAge}, nil
}

func (r *RedisIndex) IsDuplicate(ctx context.Context, fp Fingerprint, now time.Time) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+string(fp)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *RedisIndex) Admit(ctx context.Context, fp Fingerprint, now time.Time) error {
	// NX: an existing record keeps its original value and TTL
	err := r.client.SetNX(ctx, redisKeyPrefix+string(fp), now.UTC().Format(time.RFC3339), r.maxAge).Err()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}

// EvictExpired is satisfied by Redis key TTLs; there is nothing to scan.
func (r *RedisIndex) EvictExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (r *RedisIndex) Persist(ctx context.Context) error { return nil }

func (r *RedisIndex) Close() error {
	return r.client.Close()
}
