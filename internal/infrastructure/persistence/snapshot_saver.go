package persistence

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/clinicrx/backend/internal/infrastructure/telemetry"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SnapshotSource is where the saver reads committed state from
type SnapshotSource interface {
	Snapshot() *state.Snapshot
	Revision() int64
}

// SaveRecorder observes snapshot writes
type SaveRecorder interface {
	RecordSnapshotSave(ctx context.Context, elapsed time.Duration, err error)
}

// SaverConfig controls when snapshots are written
type SaverConfig struct {
	// Debounce delays a save after the last committed change so that bursts
	// of events produce one write. Zero saves on every event.
	Debounce time.Duration
	// AutosaveCron is a robfig/cron spec for a periodic save. Empty disables it.
	AutosaveCron string
}

// SnapshotSaver persists the live snapshot after committed changes. It is an
// event handler: every published domain event schedules a save.
type SnapshotSaver struct {
	source SnapshotSource
	repo   state.SnapshotRepository
	cfg    SaverConfig
	logger *zap.Logger

	timerMu sync.Mutex
	timer   *time.Timer

	saveMu sync.Mutex
	saved  atomic.Int64

	cron     *cron.Cron
	recorder SaveRecorder
}

// NewSnapshotSaver creates a saver
func NewSnapshotSaver(source SnapshotSource, repo state.SnapshotRepository, cfg SaverConfig, logger *zap.Logger) *SnapshotSaver {
	return &SnapshotSaver{
		source: source,
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("snapshot_saver"),
	}
}

// SetRecorder sets the observer notified after every write attempt
func (s *SnapshotSaver) SetRecorder(r SaveRecorder) {
	s.recorder = r
}

// MarkSaved records a revision known to be persisted already, typically the
// one just loaded at startup
func (s *SnapshotSaver) MarkSaved(revision int64) {
	s.saved.Store(revision)
}

// SavedRevision returns the last revision written
func (s *SnapshotSaver) SavedRevision() int64 {
	return s.saved.Load()
}

// Handle schedules a save
func (s *SnapshotSaver) Handle(ctx context.Context, event shared.DomainEvent) error {
	if s.cfg.Debounce <= 0 {
		return s.Flush(ctx)
	}

	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.timer == nil {
		s.timer = time.AfterFunc(s.cfg.Debounce, s.flushInBackground)
	} else {
		s.timer.Reset(s.cfg.Debounce)
	}
	return nil
}

// EventTypes subscribes to every event
func (s *SnapshotSaver) EventTypes() []string {
	return nil
}

// Start begins the periodic autosave if configured
func (s *SnapshotSaver) Start(ctx context.Context) error {
	if s.cfg.AutosaveCron == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.AutosaveCron, s.flushInBackground); err != nil {
		return fmt.Errorf("invalid autosave schedule %q: %w", s.cfg.AutosaveCron, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("snapshot autosave scheduled", zap.String("schedule", s.cfg.AutosaveCron))
	return nil
}

// Stop cancels pending timers, waits for a running autosave and writes
// whatever is still unsaved
func (s *SnapshotSaver) Stop(ctx context.Context) error {
	s.timerMu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerMu.Unlock()

	if s.cron != nil {
		select {
		case <-s.cron.Stop().Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Flush(ctx)
}

// Flush writes the current snapshot if its revision has not been saved
func (s *SnapshotSaver) Flush(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if s.source.Revision() <= s.saved.Load() {
		return nil
	}

	snap := s.source.Snapshot()
	ctx, span := telemetry.StartSpan(ctx, "snapshot.save", attribute.Int64("snapshot.revision", snap.Revision))
	defer span.End()

	start := time.Now()
	err := s.repo.Save(ctx, snap)
	elapsed := time.Since(start)
	if s.recorder != nil {
		s.recorder.RecordSnapshotSave(ctx, elapsed, err)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("save snapshot revision %d: %w", snap.Revision, err)
	}
	s.saved.Store(snap.Revision)

	s.logger.Debug("snapshot saved",
		zap.Int64("revision", snap.Revision),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

func (s *SnapshotSaver) flushInBackground() {
	if err := s.Flush(context.Background()); err != nil {
		s.logger.Error("snapshot save failed", zap.Error(err))
	}
}

var _ shared.EventHandler = (*SnapshotSaver)(nil)
