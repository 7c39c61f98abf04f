package store

import (
	"context"
	"sync"

	"github.com/clinicrx/backend/internal/domain/state"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const tracerName = "github.com/clinicrx/backend/internal/infrastructure/store"

// MemoryStore holds the live snapshot and implements state.TransactionScope
// with copy-on-write: writers work on a clone that is swapped in on success.
// Readers never observe a partially applied operation.
type MemoryStore struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	current *state.Snapshot
	logger  *zap.Logger
}

// NewMemoryStore creates a store around an initial snapshot (nil means empty)
func NewMemoryStore(initial *state.Snapshot, logger *zap.Logger) *MemoryStore {
	if initial == nil {
		initial = state.NewSnapshot()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{current: initial, logger: logger}
}

// Execute runs fn on a working copy and commits it if fn succeeds.
// Writers are serialized.
func (s *MemoryStore) Execute(ctx context.Context, fn func(snap *state.Snapshot) error) error {
	_, span := otel.Tracer(tracerName).Start(ctx, "store.Execute")
	defer span.End()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	base := s.current
	s.mu.RUnlock()

	work := base.Clone()
	if err := fn(work); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.Debug("snapshot change discarded",
			zap.Int64("revision", base.Revision),
			zap.Error(err),
		)
		return err
	}

	work.Revision = base.Revision + 1

	s.mu.Lock()
	s.current = work
	s.mu.Unlock()

	span.SetAttributes(attribute.Int64("snapshot.revision", work.Revision))
	return nil
}

// View runs fn against the current snapshot under a read lock
func (s *MemoryStore) View(ctx context.Context, fn func(snap *state.Snapshot) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.current)
}

// Snapshot returns an independent copy of the current state
func (s *MemoryStore) Snapshot() *state.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Revision returns the current revision stamp
func (s *MemoryStore) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Revision
}

// Replace swaps in a loaded snapshot, typically once at startup
func (s *MemoryStore) Replace(snap *state.Snapshot) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	s.logger.Info("snapshot replaced", zap.Int64("revision", snap.Revision))
}

// Ensure MemoryStore implements TransactionScope
var _ state.TransactionScope = (*MemoryStore)(nil)
