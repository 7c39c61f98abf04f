package trade

import (
	"context"
	"strings"
	"sync"

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

// SalesInvoiceService posts, edits and returns outdoor sales, and keeps the
// unsaved drafts operators stage lines on before posting.
type SalesInvoiceService struct {
	scope           state.TransactionScope
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics

	draftsMu sync.Mutex
	drafts   map[uuid.UUID]*trade.SalesDraft
}

// NewSalesInvoiceService creates a new SalesInvoiceService
func NewSalesInvoiceService(scope state.TransactionScope) *SalesInvoiceService {
	return &SalesInvoiceService{
		scope:  scope,
		drafts: make(map[uuid.UUID]*trade.SalesDraft),
	}
}

// SetEventPublisher sets the event publisher for the service
func (s *SalesInvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *SalesInvoiceService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Create posts a sale in one step. Lines are checked against stock the same
// way a draft checks them, then debited by the ledger.
func (s *SalesInvoiceService) Create(ctx context.Context, req CreateSalesInvoiceRequest) (*SalesInvoiceResult, error) {
	events := appevent.NewBuffer()
	var result SalesInvoiceResult

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		customer := req.Customer.toDomain()
		lines, err := resolveSalesLines(snap.Items, customer, req.Lines, nil)
		if err != nil {
			return err
		}

		inv, err := trade.NewSalesInvoice(customer, req.Date, lines, req.Discount, req.PaidAmount)
		if err != nil {
			return err
		}
		return s.post(snap, inv, events, &result)
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "sales.create", err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	logger.L(ctx).Info("sales invoice posted",
		zap.String("invoice_id", result.Invoice.ID.String()),
		zap.String("net_payable", result.Invoice.NetPayable.String()),
	)
	return &result, nil
}

// Edit replaces the lines of a posted sale. Stock released by the old lines
// counts toward the new ones.
func (s *SalesInvoiceService) Edit(ctx context.Context, id uuid.UUID, req EditSalesInvoiceRequest) (*SalesInvoiceResult, error) {
	events := appevent.NewBuffer()
	var result SalesInvoiceResult

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		inv, err := s.find(snap, id)
		if err != nil {
			return err
		}
		if err := inv.CheckVersion(req.ExpectedVersion); err != nil {
			return err
		}
		if inv.Status.IsTerminal() {
			return shared.NewDomainError("INVALID_STATE", "Cannot edit a returned sales invoice")
		}

		customer := inv.Customer
		if req.Customer != nil {
			customer = req.Customer.toDomain()
		}
		lines, err := resolveSalesLines(snap.Items, customer, req.Lines, quantities(inv.Lines))
		if err != nil {
			return err
		}

		previous := inv.Movements()
		if err := inv.Revise(lines, req.Discount, req.PaidAmount); err != nil {
			return err
		}
		inv.UpdateCustomer(customer)

		posted, err := snap.Ledger().Rebalance(inv.Direction(), previous, inv.Movements())
		if err != nil {
			return err
		}

		s.collect(events, inv, posted)
		result = SalesInvoiceResult{
			Invoice:  ToSalesInvoiceResponse(inv),
			Items:    touchedItems(snap, posted),
			Warnings: posted.Warnings,
		}
		return nil
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "sales.edit", err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	logWarnings(ctx, id, result.Warnings)
	return &result, nil
}

// Return puts a sale's quantities back into stock and marks it terminal
func (s *SalesInvoiceService) Return(ctx context.Context, id uuid.UUID, req ReturnInvoiceRequest) (*SalesInvoiceResult, error) {
	events := appevent.NewBuffer()
	var result SalesInvoiceResult

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
		result = SalesInvoiceResult{
			Invoice:  ToSalesInvoiceResponse(inv),
			Items:    touchedItems(snap, reversed),
			Warnings: reversed.Warnings,
		}
		return nil
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "sales.return", err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	logWarnings(ctx, id, result.Warnings)
	logger.L(ctx).Info("sales invoice returned", zap.String("invoice_id", id.String()))
	return &result, nil
}

// GetByID returns a sales invoice
func (s *SalesInvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*SalesInvoiceResponse, error) {
	var response SalesInvoiceResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		inv, err := s.find(snap, id)
		if err != nil {
			return err
		}
		response = ToSalesInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List returns sales in posting order
func (s *SalesInvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]SalesInvoiceResponse, error) {
	var responses []SalesInvoiceResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		search := catalog.FoldName(filter.Search)
		matches := snap.SalesInvoices.Filter(func(inv *trade.SalesInvoice) bool {
			if !filter.matches(inv.Status, inv.Date) {
				return false
			}
			return search == "" ||
				strings.Contains(catalog.FoldName(inv.Customer.DisplayName()), search) ||
				strings.Contains(catalog.FoldName(inv.Customer.Phone), search) ||
				strings.Contains(catalog.FoldName(inv.InvoiceNumber), search)
		})

		responses = make([]SalesInvoiceResponse, len(matches))
		for i, inv := range matches {
			responses[i] = ToSalesInvoiceResponse(inv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// =============================================================================
// Drafts
// =============================================================================

// OpenDraft starts an empty sales draft
func (s *SalesInvoiceService) OpenDraft(ctx context.Context, req OpenDraftRequest) *SalesDraftResponse {
	draft := trade.NewSalesDraft(req.Customer.toDomain())

	s.draftsMu.Lock()
	s.drafts[draft.ID] = draft
	s.draftsMu.Unlock()

	logger.L(ctx).Debug("sales draft opened", zap.String("draft_id", draft.ID.String()))
	response := toDraftResponse(draft, nil)
	return &response
}

// GetDraft returns a draft with per-line availability against current stock
func (s *SalesInvoiceService) GetDraft(ctx context.Context, id uuid.UUID) (*SalesDraftResponse, error) {
	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	draft, ok := s.drafts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}

	var response SalesDraftResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		response = toDraftResponse(draft, snap.Items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// AddDraftLine stages an item on a draft. The request may take at most the
// item's stock minus what the draft already stages for it; a rejected
// request leaves the draft unchanged.
func (s *SalesInvoiceService) AddDraftLine(ctx context.Context, id uuid.UUID, req AddDraftLineRequest) (*SalesDraftResponse, error) {
	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	draft, ok := s.drafts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}

	var response SalesDraftResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		item, ok := snap.Items.Get(req.ItemID)
		if !ok {
			return shared.NewValidationError(shared.CodeUnknownItem, "item_id", "item "+req.ItemID.String()+" does not exist")
		}
		if err := draft.AddLine(item.ID, item.TradeName, item.Stock, req.Quantity, draftPrice(draft, item, req.UnitPrice)); err != nil {
			return err
		}
		response = toDraftResponse(draft, snap.Items)
		return nil
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "sales.draft_add_line", err)
		return nil, err
	}
	return &response, nil
}

// RemoveDraftLine unstages an item
func (s *SalesInvoiceService) RemoveDraftLine(ctx context.Context, id, itemID uuid.UUID) (*SalesDraftResponse, error) {
	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	draft, ok := s.drafts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if !draft.RemoveLine(itemID) {
		return nil, shared.ErrNotFound
	}

	var response SalesDraftResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		response = toDraftResponse(draft, snap.Items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// PostDraft turns a draft into a posted sale. Stock is checked again at
// posting time because other sales may have run since lines were staged.
// The draft is discarded only when posting succeeds.
func (s *SalesInvoiceService) PostDraft(ctx context.Context, id uuid.UUID, req PostDraftRequest) (*SalesInvoiceResult, error) {
	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	draft, ok := s.drafts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}

	events := appevent.NewBuffer()
	var result SalesInvoiceResult

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		inv, err := draft.Post(req.Date, req.Discount, req.PaidAmount)
		if err != nil {
			return err
		}
		return s.post(snap, inv, events, &result)
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "sales.draft_post", err)
		return nil, err
	}
	delete(s.drafts, id)

	events.Publish(ctx, s.eventPublisher)
	logger.L(ctx).Info("sales draft posted",
		zap.String("draft_id", id.String()),
		zap.String("invoice_id", result.Invoice.ID.String()),
	)
	return &result, nil
}

// DiscardDraft drops a draft. Drafts never touch stock, so nothing is reversed.
func (s *SalesInvoiceService) DiscardDraft(ctx context.Context, id uuid.UUID) error {
	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	if _, ok := s.drafts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.drafts, id)
	return nil
}

func (s *SalesInvoiceService) post(snap *state.Snapshot, inv *trade.SalesInvoice, events *appevent.Buffer, result *SalesInvoiceResult) error {
	posted, err := snap.Ledger().Apply(inv.Direction(), inv.Movements())
	if err != nil {
		return err
	}
	snap.SalesInvoices.Put(inv)

	s.collect(events, inv, posted)
	*result = SalesInvoiceResult{
		Invoice:  ToSalesInvoiceResponse(inv),
		Items:    touchedItems(snap, posted),
		Warnings: posted.Warnings,
	}
	return nil
}

func (s *SalesInvoiceService) find(snap *state.Snapshot, id uuid.UUID) (*trade.SalesInvoice, error) {
	inv, ok := snap.SalesInvoices.Get(id)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

func (s *SalesInvoiceService) collect(events *appevent.Buffer, inv *trade.SalesInvoice, posted *inventory.Result) {
	events.Collect(inv)
	events.Add(posted.Events(trade.AggregateTypeSalesInvoice, inv.ID)...)
}

func toDraftResponse(d *trade.SalesDraft, items *catalog.Catalog) SalesDraftResponse {
	lines := make([]DraftLineResponse, len(d.Lines))
	for i, l := range ToLineItemResponses(d.Lines) {
		lines[i] = DraftLineResponse{LineItemResponse: l}
		if items != nil {
			if stock, ok := items.StockOf(l.ItemID); ok {
				lines[i].Available = d.Available(l.ItemID, stock)
			}
		}
	}
	return SalesDraftResponse{
		ID:        d.ID,
		Customer:  ToCustomerResponse(d.Customer),
		Lines:     lines,
		Total:     d.Total(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
