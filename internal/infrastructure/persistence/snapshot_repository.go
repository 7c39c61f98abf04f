package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/clinicrx/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSnapshotRepository stores each saved revision as a row in
// app_snapshots and keeps only the newest retain rows.
type GormSnapshotRepository struct {
	db     *gorm.DB
	retain int
}

// NewGormSnapshotRepository creates a repository; retain below 1 keeps one row
func NewGormSnapshotRepository(db *gorm.DB, retain int) *GormSnapshotRepository {
	if retain < 1 {
		retain = 1
	}
	return &GormSnapshotRepository{db: db, retain: retain}
}

// Load returns the newest saved snapshot, or state.ErrNoSnapshot
func (r *GormSnapshotRepository) Load(ctx context.Context) (*state.Snapshot, error) {
	var row models.AppSnapshot
	if err := r.db.WithContext(ctx).Order("revision DESC").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, state.ErrNoSnapshot
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	snap, err := DecodeSnapshot(row.Document)
	if err != nil {
		return nil, fmt.Errorf("snapshot revision %d: %w", row.Revision, err)
	}
	return snap, nil
}

// Save inserts the snapshot's revision and prunes old rows in one
// transaction. Saving a revision that already exists is a no-op.
func (r *GormSnapshotRepository) Save(ctx context.Context, snap *state.Snapshot) error {
	doc, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	row := models.AppSnapshot{
		Revision:     snap.Revision,
		Document:     doc,
		ItemCount:    snap.Items.Len(),
		InvoiceCount: snap.PurchaseInvoices.Len() + snap.SalesInvoices.Len(),
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "revision"}},
			DoNothing: true,
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("insert snapshot revision %d: %w", snap.Revision, err)
		}
		return r.prune(tx)
	})
}

func (r *GormSnapshotRepository) prune(tx *gorm.DB) error {
	var cutoff []int64
	if err := tx.Model(&models.AppSnapshot{}).
		Order("revision DESC").
		Offset(r.retain-1).
		Limit(1).
		Pluck("revision", &cutoff).Error; err != nil {
		return fmt.Errorf("find retention cutoff: %w", err)
	}
	if len(cutoff) == 0 {
		return nil
	}
	if err := tx.Where("revision < ?", cutoff[0]).Delete(&models.AppSnapshot{}).Error; err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// Revisions lists stored revisions, newest first
func (r *GormSnapshotRepository) Revisions(ctx context.Context) ([]int64, error) {
	var revs []int64
	if err := r.db.WithContext(ctx).Model(&models.AppSnapshot{}).
		Order("revision DESC").
		Pluck("revision", &revs).Error; err != nil {
		return nil, fmt.Errorf("list snapshot revisions: %w", err)
	}
	return revs, nil
}

var _ state.SnapshotRepository = (*GormSnapshotRepository)(nil)
