package state

import (
	"context"
	"errors"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet
var ErrNoSnapshot = errors.New("no saved snapshot")

// SnapshotRepository persists whole snapshots. Save must be idempotent for a
// given revision.
type SnapshotRepository interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}
