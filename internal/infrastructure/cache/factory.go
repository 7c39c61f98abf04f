package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects to Redis and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewIdempotencyStore picks the store named by cfg.Backend. The redis backend
// needs a client; when it is nil the in-memory store is used with a warning.
func NewIdempotencyStore(cfg config.IdempotencyConfig, client *redis.Client, logger *zap.Logger) shared.IdempotencyStore {
	if cfg.Backend == "redis" {
		if client != nil {
			logger.Info("using Redis idempotency store")
			return NewRedisIdempotencyStore(client, "")
		}
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store. " +
			"Keys are not shared between instances.")
	}
	return NewInMemoryIdempotencyStore(5 * time.Minute)
}
