package trade

import (
	"context"
	"strings"

	appevent "github.com/clinicrx/backend/internal/application/event"
	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/clinicrx/backend/internal/domain/inventory"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/clinicrx/backend/internal/domain/trade"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"github.com/clinicrx/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseInvoiceService posts, edits and returns supplier invoices. Each
// operation changes the invoice and item stock in one unit of work.
type PurchaseInvoiceService struct {
	scope           state.TransactionScope
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewPurchaseInvoiceService creates a new PurchaseInvoiceService
func NewPurchaseInvoiceService(scope state.TransactionScope) *PurchaseInvoiceService {
	return &PurchaseInvoiceService{scope: scope}
}

// SetEventPublisher sets the event publisher for the service
func (s *PurchaseInvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *PurchaseInvoiceService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Create posts a purchase: every line adds stock, items introduced by the
// invoice are created, and the settlement is fixed from the line totals.
func (s *PurchaseInvoiceService) Create(ctx context.Context, req CreatePurchaseInvoiceRequest) (*PurchaseInvoiceResult, error) {
	events := appevent.NewBuffer()
	var result PurchaseInvoiceResult

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		resolved, err := resolvePurchaseLines(snap.Items, req.Lines)
		if err != nil {
			return err
		}

		inv, err := trade.NewPurchaseInvoice(req.SupplierName, req.Date, resolved.lines, req.Discount, req.PaidAmount, req.OpeningStock)
		if err != nil {
			return err
		}

		posted, err := snap.Ledger().Apply(inv.Direction(), resolved.movements)
		if err != nil {
			return err
		}
		snap.PurchaseInvoices.Put(inv)

		s.collect(events, inv, posted)
		result = PurchaseInvoiceResult{
			Invoice:  ToPurchaseInvoiceResponse(inv),
			Items:    touchedItems(snap, posted),
			Warnings: posted.Warnings,
		}
		return nil
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "purchase.create", err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	logger.L(ctx).Info("purchase invoice posted",
		zap.String("invoice_id", result.Invoice.ID.String()),
		zap.String("status", result.Invoice.Status),
		zap.String("net_payable", result.Invoice.NetPayable.String()),
	)
	return &result, nil
}

// Edit replaces the lines of a posted purchase. The previously applied lines
// are reversed and the new ones applied as a single ledger post, so only the
// difference reaches the catalog.
func (s *PurchaseInvoiceService) Edit(ctx context.Context, id uuid.UUID, req EditPurchaseInvoiceRequest) (*PurchaseInvoiceResult, error) {
	events := appevent.NewBuffer()
	var result PurchaseInvoiceResult

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		inv, err := s.find(snap, id)
		if err != nil {
			return err
		}
		if err := inv.CheckVersion(req.ExpectedVersion); err != nil {
			return err
		}

		resolved, err := resolvePurchaseLines(snap.Items, req.Lines)
		if err != nil {
			return err
		}

		previous := inv.Movements()
		if err := inv.Revise(resolved.lines, req.Discount, req.PaidAmount); err != nil {
			return err
		}

		posted, err := snap.Ledger().Rebalance(inv.Direction(), previous, resolved.movements)
		if err != nil {
			return err
		}

		s.collect(events, inv, posted)
		result = PurchaseInvoiceResult{
			Invoice:  ToPurchaseInvoiceResponse(inv),
			Items:    touchedItems(snap, posted),
			Warnings: posted.Warnings,
		}
		return nil
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "purchase.edit", err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	logWarnings(ctx, id, result.Warnings)
	return &result, nil
}

// Return reverses a purchase's stock effect and marks it terminal. The
// record is kept so its lines stay visible and its items stay referenced.
func (s *PurchaseInvoiceService) Return(ctx context.Context, id uuid.UUID, req ReturnInvoiceRequest) (*PurchaseInvoiceResult, error) {
	events := appevent.NewBuffer()
	var result PurchaseInvoiceResult

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		inv, err := s.find(snap, id)
		if err != nil {
			return err
		}
		if err := inv.CheckVersion(req.ExpectedVersion); err != nil {
			return err
		}

		movements := inv.Movements()
		if err := inv.MarkReturned(); err != nil {
			return err
		}

		reversed, err := snap.Ledger().Reverse(inv.Direction(), movements)
		if err != nil {
			return err
		}

		s.collect(events, inv, reversed)
		result = PurchaseInvoiceResult{
			Invoice:  ToPurchaseInvoiceResponse(inv),
			Items:    touchedItems(snap, reversed),
			Warnings: reversed.Warnings,
		}
		return nil
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "purchase.return", err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	logWarnings(ctx, id, result.Warnings)
	logger.L(ctx).Info("purchase invoice returned", zap.String("invoice_id", id.String()))
	return &result, nil
}

// GetByID returns a purchase invoice
func (s *PurchaseInvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseInvoiceResponse, error) {
	var response PurchaseInvoiceResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		inv, err := s.find(snap, id)
		if err != nil {
			return err
		}
		response = ToPurchaseInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List returns purchases in posting order
func (s *PurchaseInvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]PurchaseInvoiceResponse, error) {
	var responses []PurchaseInvoiceResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		search := catalog.FoldName(filter.Search)
		matches := snap.PurchaseInvoices.Filter(func(p *trade.PurchaseInvoice) bool {
			if !filter.matches(p.Status, p.Date) {
				return false
			}
			return search == "" ||
				strings.Contains(catalog.FoldName(p.SupplierName), search) ||
				strings.Contains(catalog.FoldName(p.InvoiceNumber), search)
		})

		responses = make([]PurchaseInvoiceResponse, len(matches))
		for i, p := range matches {
			responses[i] = ToPurchaseInvoiceResponse(p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

func (s *PurchaseInvoiceService) find(snap *state.Snapshot, id uuid.UUID) (*trade.PurchaseInvoice, error) {
	inv, ok := snap.PurchaseInvoices.Get(id)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

func (s *PurchaseInvoiceService) collect(events *appevent.Buffer, inv *trade.PurchaseInvoice, posted *inventory.Result) {
	for _, item := range posted.Created {
		events.Collect(item)
	}
	events.Collect(inv)
	events.Add(posted.Events(trade.AggregateTypePurchaseInvoice, inv.ID)...)
}

// logWarnings reports reversals that skipped items missing from the catalog
func logWarnings(ctx context.Context, invoiceID uuid.UUID, warnings []shared.DanglingReferenceWarning) {
	for _, w := range warnings {
		logger.L(ctx).Warn("reversal skipped missing item",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("item_id", w.ItemID.String()),
			zap.Int64("quantity", w.Quantity),
		)
	}
}
