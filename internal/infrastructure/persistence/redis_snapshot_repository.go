package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/redis/go-redis/v9"
)

// RedisSnapshotRepository keeps the latest snapshot document under one key,
// with its revision in a sibling key for cheap inspection.
type RedisSnapshotRepository struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotRepository creates a repository storing under key
func NewRedisSnapshotRepository(client *redis.Client, key string) *RedisSnapshotRepository {
	if key == "" {
		key = "clinic:snapshot"
	}
	return &RedisSnapshotRepository{client: client, key: key}
}

func (r *RedisSnapshotRepository) revisionKey() string {
	return r.key + ":revision"
}

// Load returns the stored snapshot, or state.ErrNoSnapshot
func (r *RedisSnapshotRepository) Load(ctx context.Context) (*state.Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, state.ErrNoSnapshot
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

// Save overwrites the stored document and revision atomically
func (r *RedisSnapshotRepository) Save(ctx context.Context, snap *state.Snapshot) error {
	doc, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key, doc, 0)
		pipe.Set(ctx, r.revisionKey(), snap.Revision, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot revision %d: %w", snap.Revision, err)
	}
	return nil
}

var _ state.SnapshotRepository = (*RedisSnapshotRepository)(nil)
