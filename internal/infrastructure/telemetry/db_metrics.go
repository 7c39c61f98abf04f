package telemetry

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// DBMetrics samples connection pool statistics of the snapshot database.
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge

	sqlDB    *sql.DB
	interval time.Duration
	logger   *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates pool gauges for sqlDB. interval defaults to 15s.
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, interval time.Duration, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}

	poolConnections, err := NewGauge(meter,
		"db_pool_connections",
		"Number of connections in the pool by state",
		"{connection}",
	)
	if err != nil {
		return nil, err
	}
	poolConnectionsMax, err := NewGauge(meter,
		"db_pool_connections_max",
		"Maximum number of connections in the pool",
		"{connection}",
	)
	if err != nil {
		return nil, err
	}

	return &DBMetrics{
		poolConnections:    poolConnections,
		poolConnectionsMax: poolConnectionsMax,
		sqlDB:              sqlDB,
		interval:           interval,
		logger:             logger,
		stopCh:             make(chan struct{}),
	}, nil
}

// Start samples the pool immediately and then every interval until Stop or
// ctx is done.
func (m *DBMetrics) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.collect(ctx)
		for {
			select {
			case <-ticker.C:
				m.collect(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collect(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBPool.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBPool.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBPool.String("open"))
}

// Stop ends sampling. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}
