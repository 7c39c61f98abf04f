package persistence

import (
	"fmt"
	"time"

	"github.com/clinicrx/backend/internal/infrastructure/config"
	"github.com/clinicrx/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the gorm connection used by the snapshot repository
type Database struct {
	DB     *gorm.DB
	Driver string
}

// NewDatabase opens postgres or sqlite as configured. A nil logger silences gorm.
func NewDatabase(cfg *config.DatabaseConfig, logger gormlogger.Interface) (*Database, error) {
	if logger == nil {
		logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer; ":memory:" is per connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db, Driver: cfg.Driver}, nil
}

// EnsureSchema creates the snapshot table for sqlite. Postgres schemas are
// owned by cmd/migrate.
func (d *Database) EnsureSchema() error {
	if d.Driver != "sqlite" {
		return nil
	}
	if err := d.DB.AutoMigrate(&models.AppSnapshot{}); err != nil {
		return fmt.Errorf("auto-migrate app_snapshots: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
