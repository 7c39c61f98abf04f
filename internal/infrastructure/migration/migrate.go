package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator applies the versioned SQL files under migrations/ to postgres.
// SQLite deployments create their schema through gorm instead.
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New creates a Migrator over an open postgres connection
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{migrate: m, logger: logger}, nil
}

// finish turns ErrNoChange into success and logs where the schema ended up
func (m *Migrator) finish(op string, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Schema already up to date", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migration finished",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	return m.finish("up", m.migrate.Up())
}

// Down rolls back all migrations
func (m *Migrator) Down() error {
	return m.finish("down", m.migrate.Down())
}

// Steps applies n migrations (positive = up, negative = down)
func (m *Migrator) Steps(n int) error {
	return m.finish(fmt.Sprintf("steps(%d)", n), m.migrate.Steps(n))
}

// GoTo migrates to a specific version
func (m *Migrator) GoTo(version uint) error {
	return m.finish(fmt.Sprintf("goto(%d)", version), m.migrate.Migrate(version))
}

// Version returns the applied version; 0 means none
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running anything. It clears a dirty state
// left by a failed migration.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and database handles
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}
