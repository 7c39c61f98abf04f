package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinicrx/backend/internal/domain/finance"
	"github.com/clinicrx/backend/internal/domain/inventory"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PurchaseInvoice is a supplier document. Lines always hold exactly what was
// last applied to the stock ledger, so edits and returns reverse those lines.
type PurchaseInvoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string
	Date          time.Time
	SupplierName  string
	Lines         []LineItem
	finance.Settlement
	Status     InvoiceStatus
	ReturnedAt *time.Time
}

// NewPurchaseInvoice builds a posted (or opening-stock) purchase.
// The caller applies Movements to the ledger in the same unit of work.
func NewPurchaseInvoice(supplierName string, date time.Time, lines []LineItem, discount, paid decimal.Decimal, openingStock bool) (*PurchaseInvoice, error) {
	supplierName = strings.TrimSpace(supplierName)
	if supplierName == "" {
		return nil, shared.NewValidationError(shared.CodeValidationFailed, "supplier_name", "supplier name cannot be empty")
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	inv := &PurchaseInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Date:              normalizeDate(date),
		SupplierName:      supplierName,
		Lines:             copyLines(lines),
		Status:            InvoiceStatusDraft,
	}
	inv.InvoiceNumber = invoiceNumber("PUR", inv.ID)

	settlement, err := finance.NewSettlement(sumLines(inv.Lines), discount, paid)
	if err != nil {
		return nil, withInvoiceID(err, inv.ID)
	}
	inv.Settlement = settlement

	target := InvoiceStatusPosted
	if openingStock {
		target = InvoiceStatusInitial
	}
	if err := inv.transition(target); err != nil {
		return nil, err
	}

	inv.AddDomainEvent(NewPurchaseInvoicePostedEvent(inv))
	return inv, nil
}

// Direction is always purchase
func (p *PurchaseInvoice) Direction() inventory.Direction {
	return inventory.DirectionPurchase
}

// Movements returns the lines currently applied to the ledger
func (p *PurchaseInvoice) Movements() []inventory.Movement {
	return Movements(p.Lines)
}

// IsOpeningStock reports whether this is an Initial invoice
func (p *PurchaseInvoice) IsOpeningStock() bool {
	return p.Status == InvoiceStatusInitial
}

// Revise replaces lines, discount and paid amount, recomputing totals from
// scratch. Id, date, creation time and status are preserved.
func (p *PurchaseInvoice) Revise(lines []LineItem, discount, paid decimal.Decimal) error {
	if err := p.transitionCheck(p.Status); err != nil {
		return err
	}
	if err := validateLines(lines); err != nil {
		return err
	}

	settlement, err := finance.NewSettlement(sumLines(lines), discount, paid)
	if err != nil {
		return withInvoiceID(err, p.ID)
	}

	previous := p.Lines
	p.Lines = copyLines(lines)
	p.Settlement = settlement
	p.IncrementVersion()

	p.AddDomainEvent(NewPurchaseInvoiceEditedEvent(p, previous))
	return nil
}

// RecordPayment applies a partial payment against the supplier due
func (p *PurchaseInvoice) RecordPayment(amount decimal.Decimal) error {
	if !p.Status.CarriesDue() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record payment on invoice in %s status", p.Status))
	}

	settlement, err := p.Settlement.ApplyPayment(amount)
	if err != nil {
		return withInvoiceID(err, p.ID)
	}
	p.Settlement = settlement
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentRecordedEvent(AggregateTypePurchaseInvoice, p.ID, amount, p.Settlement))
	return nil
}

// MarkReturned flags the invoice terminal. The caller reverses Movements first.
func (p *PurchaseInvoice) MarkReturned() error {
	if err := p.transition(InvoiceStatusReturned); err != nil {
		return err
	}
	now := time.Now()
	p.ReturnedAt = &now
	p.IncrementVersion()

	p.AddDomainEvent(NewPurchaseInvoiceReturnedEvent(p))
	return nil
}

// Clone returns an independent copy without pending events
func (p *PurchaseInvoice) Clone() *PurchaseInvoice {
	c := *p
	c.BaseAggregateRoot = p.CloneRoot()
	c.Lines = copyLines(p.Lines)
	if p.ReturnedAt != nil {
		t := *p.ReturnedAt
		c.ReturnedAt = &t
	}
	return &c
}

func (p *PurchaseInvoice) transition(target InvoiceStatus) error {
	if err := p.transitionCheck(target); err != nil {
		return err
	}
	p.Status = target
	return nil
}

func (p *PurchaseInvoice) transitionCheck(target InvoiceStatus) error {
	if !p.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move purchase invoice from %s to %s", p.Status, target))
	}
	return nil
}
