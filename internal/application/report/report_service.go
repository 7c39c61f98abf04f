package report

import (
	"context"

	"github.com/clinicrx/backend/internal/domain/report"
	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ReportService builds read-only views over the current snapshot
type ReportService struct {
	scope             state.TransactionScope
	lowStockThreshold int64
}

// NewReportService creates a new ReportService. Items at or below
// lowStockThreshold count as low stock.
func NewReportService(scope state.TransactionScope, lowStockThreshold int64) *ReportService {
	return &ReportService{scope: scope, lowStockThreshold: lowStockThreshold}
}

// GetProfitLoss summarizes posted trading in the period. Opening-stock and
// returned invoices are left out.
func (s *ReportService) GetProfitLoss(ctx context.Context, req ProfitLossRequest) (*ProfitLossResponse, error) {
	var response ProfitLossResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		pl := report.BuildProfitLoss(req.period(), snap.PurchaseInvoices.All(), snap.SalesInvoices.All())
		response = ProfitLossResponse{
			From:            req.From,
			To:              req.To,
			SalesRevenue:    pl.SalesRevenue,
			SalesDiscount:   pl.SalesDiscount,
			PurchaseExpense: pl.PurchaseExpense,
			GrossProfit:     pl.GrossProfit,
			SalesCount:      pl.SalesCount,
			PurchaseCount:   pl.PurchaseCount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// Reconcile recomputes every item's stock from the invoices in force and
// reports mismatches. A consistent store returns no drifts.
func (s *ReportService) Reconcile(ctx context.Context) (*ReconciliationResponse, error) {
	var response ReconciliationResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		drifts := snap.Reconcile()
		response = ReconciliationResponse{
			Revision:   snap.Revision,
			ItemCount:  snap.Items.Len(),
			Consistent: len(drifts) == 0,
			Drifts:     toDriftResponses(drifts),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !response.Consistent {
		logger.L(ctx).Warn("stock drift detected",
			zap.Int64("revision", response.Revision),
			zap.Int("drifted_items", len(response.Drifts)),
		)
	}
	return &response, nil
}

// LowStockCount returns how many items sit at or below the threshold
func (s *ReportService) LowStockCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		count = int64(len(snap.Items.LowStock(s.lowStockThreshold)))
		return nil
	})
	return count, err
}

// DriftedItemCount returns how many items fail reconciliation
func (s *ReportService) DriftedItemCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		count = int64(len(snap.Reconcile()))
		return nil
	})
	return count, err
}
