package trade

import (
	"github.com/clinicrx/backend/internal/domain/inventory"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one (item, quantity, price) entry. The stock sign comes from the invoice.
type LineItem struct {
	ItemID    uuid.UUID
	ItemName  string
	Quantity  int64
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// NewLineItem validates and prices a line
func NewLineItem(itemID uuid.UUID, itemName string, quantity int64, unitPrice decimal.Decimal) (LineItem, error) {
	if itemID == uuid.Nil {
		return LineItem{}, shared.NewValidationError(shared.CodeUnknownItem, "item_id", "line item requires an item id")
	}
	if quantity <= 0 {
		return LineItem{}, shared.NewValidationError(shared.CodeInvalidQuantity, "quantity", "quantity must be greater than zero")
	}
	if unitPrice.IsNegative() {
		return LineItem{}, shared.NewValidationError(shared.CodeInvalidAmount, "unit_price", "unit price cannot be negative")
	}

	line := LineItem{
		ItemID:    itemID,
		ItemName:  itemName,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	line.recalculate()
	return line, nil
}

func (l *LineItem) recalculate() {
	l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// validateLines checks a line list before it is applied
func validateLines(lines []LineItem) error {
	if len(lines) == 0 {
		return shared.NewValidationError(shared.CodeEmptyLines, "lines", "at least one line item is required")
	}
	for i := range lines {
		if lines[i].Quantity <= 0 {
			return shared.NewValidationError(shared.CodeInvalidQuantity, "lines", "every line quantity must be greater than zero")
		}
		if lines[i].ItemID == uuid.Nil {
			return shared.NewValidationError(shared.CodeUnknownItem, "lines", "every line requires an item id")
		}
	}
	return nil
}

func sumLines(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return total
}

func copyLines(lines []LineItem) []LineItem {
	out := make([]LineItem, len(lines))
	copy(out, lines)
	return out
}

// Movements converts lines into ledger movements
func Movements(lines []LineItem) []inventory.Movement {
	out := make([]inventory.Movement, 0, len(lines))
	for _, l := range lines {
		out = append(out, inventory.Movement{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return out
}

// ReferencesItem reports whether any line points at itemID
func ReferencesItem(lines []LineItem, itemID uuid.UUID) bool {
	for _, l := range lines {
		if l.ItemID == itemID {
			return true
		}
	}
	return false
}
