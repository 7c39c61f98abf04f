package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	DBSystem        string        // "postgresql" or "sqlite"
	LogFullSQL      bool          // keep query variables in spans; development only
	SlowQueryThresh time.Duration // default 200ms
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// RegisterDBTracing installs the otelgorm plugin and a callback that flags
// slow statements on their span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartTimeKey, time.Now())
		}
	}
	after := func(tx *gorm.DB) {
		markSlowQuery(tx, cfg.SlowQueryThresh)
	}

	// The slow-query marker has to run while otelgorm's span is still open,
	// so it sits between gorm's statement and otelgorm's after hook.
	cb := db.Callback()
	for _, err := range []error{
		cb.Create().Before("gorm:create").Register("clinic:query_start:create", before),
		cb.Query().Before("gorm:query").Register("clinic:query_start:query", before),
		cb.Update().Before("gorm:update").Register("clinic:query_start:update", before),
		cb.Delete().Before("gorm:delete").Register("clinic:query_start:delete", before),
		cb.Raw().Before("gorm:raw").Register("clinic:query_start:raw", before),
		cb.Create().After("gorm:create").Before("otel:after:create").Register("clinic:slow_query:create", after),
		cb.Query().After("gorm:query").Before("otel:after:select").Register("clinic:slow_query:query", after),
		cb.Update().After("gorm:update").Before("otel:after:update").Register("clinic:slow_query:update", after),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("clinic:slow_query:delete", after),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("clinic:slow_query:raw", after),
	} {
		if err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func markSlowQuery(tx *gorm.DB, threshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		RecordError(span, tx.Error)
	}

	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
