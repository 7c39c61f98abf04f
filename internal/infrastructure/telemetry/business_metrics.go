// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/clinicrx/backend/internal/domain/commission"
	"github.com/clinicrx/backend/internal/domain/inventory"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks invoice, payment and stock activity.
// It consumes domain events from the bus and exposes a few direct recorders
// for things that never become events, such as rejected operations.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	invoicePostedTotal   *Counter
	invoiceAmountTotal   *Counter
	invoiceEditedTotal   *Counter
	invoiceReturnedTotal *Counter
	paymentTotal         *Counter
	paymentAmountTotal   *Counter
	commissionPaidTotal  *Counter
	stockMovedUnits      *Counter
	rejectionTotal       *Counter

	// Gauge metrics (point-in-time values)
	lowStockCount   *Gauge
	stockDriftCount *Gauge

	snapshotSaveDuration *Histogram

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	inventoryProvider InventoryMetricsProvider
}

// InventoryMetricsProvider supplies stock health figures for periodic
// collection without tying telemetry to the application layer.
type InventoryMetricsProvider interface {
	// LowStockCount returns the number of items at or below the low-stock threshold
	LowStockCount(ctx context.Context) (int64, error)

	// DriftedItemCount returns the number of items whose stock disagrees with posted invoices
	DriftedItemCount(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	InventoryProvider InventoryMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		inventoryProvider: cfg.InventoryProvider,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&bm.invoicePostedTotal, "clinic_invoice_posted_total", "Total number of invoices posted", "{invoices}"},
		{&bm.invoiceAmountTotal, "clinic_invoice_amount_total", "Total net payable of posted invoices in cents", "{cents}"},
		{&bm.invoiceEditedTotal, "clinic_invoice_edited_total", "Total number of invoice edits", "{edits}"},
		{&bm.invoiceReturnedTotal, "clinic_invoice_returned_total", "Total number of returned invoices", "{invoices}"},
		{&bm.paymentTotal, "clinic_due_payment_total", "Total number of due payments recorded", "{payments}"},
		{&bm.paymentAmountTotal, "clinic_due_payment_amount_total", "Total amount of due payments in cents", "{cents}"},
		{&bm.commissionPaidTotal, "clinic_commission_paid_amount_total", "Total commission paid out in cents", "{cents}"},
		{&bm.stockMovedUnits, "clinic_stock_moved_units_total", "Total stock units moved by the ledger", "{units}"},
		{&bm.rejectionTotal, "clinic_operation_rejected_total", "Total number of rejected operations", "{operations}"},
	}

	var err error
	for _, c := range counters {
		*c.target, err = NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
	}

	bm.lowStockCount, err = NewGauge(
		cfg.Meter,
		"clinic_inventory_low_stock_count",
		"Number of items at or below the low-stock threshold",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	bm.stockDriftCount, err = NewGauge(
		cfg.Meter,
		"clinic_inventory_drift_count",
		"Number of items whose stock disagrees with posted invoices",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	bm.snapshotSaveDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "clinic_snapshot_save_duration_seconds",
		Description: "Time spent writing state snapshots",
		Unit:        "s",
		Boundaries:  SnapshotSaveBuckets,
	})
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Event Handling
// =============================================================================

// Handle records metrics for a published domain event. It never fails.
func (bm *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.InvoicePostedEvent:
		attrs := []attribute.KeyValue{
			AttrInvoiceKind.String(e.AggregateType()),
			AttrInvoiceStatus.String(string(e.Status)),
		}
		bm.invoicePostedTotal.Inc(ctx, attrs...)
		bm.invoiceAmountTotal.Add(ctx, toCents(e.NetPayable), attrs...)
	case *trade.InvoiceEditedEvent:
		bm.invoiceEditedTotal.Inc(ctx, AttrInvoiceKind.String(e.AggregateType()))
	case *trade.InvoiceReturnedEvent:
		bm.invoiceReturnedTotal.Inc(ctx, AttrInvoiceKind.String(e.AggregateType()))
	case *trade.PaymentRecordedEvent:
		attrs := []attribute.KeyValue{
			AttrInvoiceKind.String(e.AggregateType()),
			AttrPaymentStatus.String(string(e.Status)),
		}
		bm.paymentTotal.Inc(ctx, attrs...)
		bm.paymentAmountTotal.Add(ctx, toCents(e.Amount), attrs...)
	case *commission.CommissionPaymentRecordedEvent:
		bm.commissionPaidTotal.Add(ctx, toCents(e.Amount))
	case *inventory.StockAdjustedEvent:
		delta := e.After - e.Before
		direction := "in"
		if delta < 0 {
			direction = "out"
			delta = -delta
		}
		bm.stockMovedUnits.Add(ctx, delta,
			AttrStockDirection.String(direction),
			AttrSourceType.String(e.SourceType),
		)
	}
	return nil
}

// EventTypes returns nil so the handler sees every event
func (bm *BusinessMetrics) EventTypes() []string {
	return nil
}

// RecordRejection counts an operation the engine refused. Safe on a nil receiver.
func (bm *BusinessMetrics) RecordRejection(ctx context.Context, operation string, err error) {
	if bm == nil || err == nil {
		return
	}
	bm.rejectionTotal.Inc(ctx,
		AttrOperation.String(operation),
		AttrErrorCode.String(shared.ErrorCode(err)),
	)
}

// RecordLowStockCount records the number of items at or below the threshold.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, count int64) {
	bm.lowStockCount.Record(ctx, count)
}

// RecordStockDriftCount records the number of items failing reconciliation.
func (bm *BusinessMetrics) RecordStockDriftCount(ctx context.Context, count int64) {
	bm.stockDriftCount.Record(ctx, count)
}

// RecordSnapshotSave records how long a snapshot write took and whether it failed.
func (bm *BusinessMetrics) RecordSnapshotSave(ctx context.Context, elapsed time.Duration, err error) {
	if bm == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	bm.snapshotSaveDuration.RecordDuration(ctx, elapsed, AttrOutcome.String(outcome))
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectInventoryMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectInventoryMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectInventoryMetrics(ctx context.Context) {
	if bm.inventoryProvider == nil {
		bm.logger.Debug("No inventory provider configured, skipping inventory metrics collection")
		return
	}

	if count, err := bm.inventoryProvider.LowStockCount(ctx); err != nil {
		bm.logger.Warn("Failed to get low stock count", zap.Error(err))
	} else {
		bm.RecordLowStockCount(ctx, count)
	}

	if count, err := bm.inventoryProvider.DriftedItemCount(ctx); err != nil {
		bm.logger.Warn("Failed to get drifted item count", zap.Error(err))
	} else {
		bm.RecordStockDriftCount(ctx, count)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
