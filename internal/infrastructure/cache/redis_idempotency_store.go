package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyPrefix = "clinic:idempotency:"

// RedisIdempotencyStore shares Idempotency-Key reservations between
// instances through Redis SETNX
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore wraps an existing client. The client is closed by
// whoever created it, not by the store.
func NewRedisIdempotencyStore(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultIdempotencyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed reserves key with SET NX and a TTL
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// IsProcessed checks whether key is reserved
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check idempotency key: %w", err)
	}
	return n > 0, nil
}

// Release deletes the reservation
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
