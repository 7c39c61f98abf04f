package trade

import (
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesDraft is the unsaved form buffer of a sale. It has no stock effect;
// staged quantities only reduce what further lines may take.
type SalesDraft struct {
	ID        uuid.UUID
	Customer  Customer
	Lines     []LineItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSalesDraft opens an empty draft
func NewSalesDraft(customer Customer) *SalesDraft {
	now := time.Now()
	return &SalesDraft{
		ID:        uuid.New(),
		Customer:  normalizeCustomer(customer),
		Lines:     make([]LineItem, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Staged returns the quantity already staged for an item
func (d *SalesDraft) Staged(itemID uuid.UUID) int64 {
	var staged int64
	for _, l := range d.Lines {
		if l.ItemID == itemID {
			staged += l.Quantity
		}
	}
	return staged
}

// Available returns stock minus what this draft already stages
func (d *SalesDraft) Available(itemID uuid.UUID, stock int64) int64 {
	return stock - d.Staged(itemID)
}

// StagedPrice returns the unit price of an item's staged line
func (d *SalesDraft) StagedPrice(itemID uuid.UUID) (decimal.Decimal, bool) {
	for _, l := range d.Lines {
		if l.ItemID == itemID {
			return l.UnitPrice, true
		}
	}
	return decimal.Zero, false
}

// AddLine stages quantity of an item. A line for an item already in the draft
// grows in place and must keep its unit price; the draft is unchanged when the
// request is rejected.
func (d *SalesDraft) AddLine(itemID uuid.UUID, itemName string, stock, quantity int64, unitPrice decimal.Decimal) error {
	line, err := NewLineItem(itemID, itemName, quantity, unitPrice)
	if err != nil {
		return err
	}
	if staged, ok := d.StagedPrice(itemID); ok && !staged.Equal(unitPrice) {
		return shared.NewValidationError(shared.CodeInvalidAmount, "unit_price",
			"item "+itemName+" is already staged at unit price "+staged.String())
	}

	available := d.Available(itemID, stock)
	if quantity > available {
		if available < 0 {
			available = 0
		}
		return &shared.InsufficientStockError{ItemID: itemID, Requested: quantity, Available: available}
	}

	for i := range d.Lines {
		if d.Lines[i].ItemID == itemID {
			d.Lines[i].Quantity += quantity
			d.Lines[i].recalculate()
			d.UpdatedAt = time.Now()
			return nil
		}
	}

	d.Lines = append(d.Lines, line)
	d.UpdatedAt = time.Now()
	return nil
}

// RemoveLine drops an item's line. Returns false if it was not staged.
func (d *SalesDraft) RemoveLine(itemID uuid.UUID) bool {
	for i := range d.Lines {
		if d.Lines[i].ItemID == itemID {
			d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
			d.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// Total returns the sum of staged line totals
func (d *SalesDraft) Total() decimal.Decimal {
	return sumLines(d.Lines)
}

// Post turns the draft into a posted sales invoice
func (d *SalesDraft) Post(date time.Time, discount, paid decimal.Decimal) (*SalesInvoice, error) {
	return NewSalesInvoice(d.Customer, date, d.Lines, discount, paid)
}

// Clone returns an independent copy
func (d *SalesDraft) Clone() *SalesDraft {
	c := *d
	c.Lines = copyLines(d.Lines)
	return &c
}
