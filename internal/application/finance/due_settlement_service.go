package finance

import (
	"context"

	appevent "github.com/clinicrx/backend/internal/application/event"
	"github.com/clinicrx/backend/internal/domain/report"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"github.com/clinicrx/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DueSettlementService records partial payments against invoice dues and
// reports what is outstanding
type DueSettlementService struct {
	scope           state.TransactionScope
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewDueSettlementService creates a new DueSettlementService
func NewDueSettlementService(scope state.TransactionScope) *DueSettlementService {
	return &DueSettlementService{scope: scope}
}

// SetEventPublisher sets the event publisher for the service
func (s *DueSettlementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *DueSettlementService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// RecordPurchasePayment pays down a supplier due. The amount must be
// positive and may not exceed the due beyond the rounding tolerance.
func (s *DueSettlementService) RecordPurchasePayment(ctx context.Context, invoiceID uuid.UUID, req RecordPaymentRequest) (*SettlementResponse, error) {
	events := appevent.NewBuffer()
	var response SettlementResponse

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		inv, ok := snap.PurchaseInvoices.Get(invoiceID)
		if !ok {
			return shared.ErrNotFound
		}
		if err := inv.CheckVersion(req.ExpectedVersion); err != nil {
			return err
		}
		if err := inv.RecordPayment(req.Amount); err != nil {
			return err
		}

		events.Collect(inv)
		response = toSettlementResponse(inv.ID, inv.InvoiceNumber, InvoiceKindPurchase, inv.SupplierName, inv.Settlement, inv.GetVersion())
		return nil
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "settlement.purchase_payment", err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	s.logPayment(ctx, response, req)
	return &response, nil
}

// RecordSalesPayment collects part of a customer due
func (s *DueSettlementService) RecordSalesPayment(ctx context.Context, invoiceID uuid.UUID, req RecordPaymentRequest) (*SettlementResponse, error) {
	events := appevent.NewBuffer()
	var response SettlementResponse

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		inv, ok := snap.SalesInvoices.Get(invoiceID)
		if !ok {
			return shared.ErrNotFound
		}
		if err := inv.CheckVersion(req.ExpectedVersion); err != nil {
			return err
		}
		if err := inv.RecordPayment(req.Amount); err != nil {
			return err
		}

		events.Collect(inv)
		response = toSettlementResponse(inv.ID, inv.InvoiceNumber, InvoiceKindSales, inv.Customer.DisplayName(), inv.Settlement, inv.GetVersion())
		return nil
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "settlement.sales_payment", err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	s.logPayment(ctx, response, req)
	return &response, nil
}

// GetDueSummary groups outstanding dues by supplier and customer
func (s *DueSettlementService) GetDueSummary(ctx context.Context) (*DueSummaryResponse, error) {
	var response DueSummaryResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		summary := report.BuildDueSummary(snap.PurchaseInvoices.All(), snap.SalesInvoices.All())
		response = toDueSummaryResponse(summary)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (s *DueSettlementService) logPayment(ctx context.Context, resp SettlementResponse, req RecordPaymentRequest) {
	logger.L(ctx).Info("due payment recorded",
		zap.String("invoice_id", resp.InvoiceID.String()),
		zap.String("kind", string(resp.Kind)),
		zap.String("amount", req.Amount.String()),
		zap.String("due_amount", resp.DueAmount.String()),
	)
}
