package catalog

import (
	"strings"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemAttributes is the caller-supplied identity and pricing of an item.
// Stock is deliberately absent: only the stock ledger changes it.
type ItemAttributes struct {
	TradeName     string
	GenericName   string
	Formulation   string
	Strength      string
	UnitPriceBuy  decimal.Decimal
	UnitPriceSell decimal.Decimal
	ExpiryDate    *time.Time
}

// Item is one tradeable medicine or product with a live stock count
type Item struct {
	shared.BaseAggregateRoot
	TradeName     string
	GenericName   string
	Formulation   string
	Strength      string
	Stock         int64
	UnitPriceBuy  decimal.Decimal
	UnitPriceSell decimal.Decimal
	ExpiryDate    *time.Time
}

// NewItem creates an item with zero stock
func NewItem(attrs ItemAttributes) (*Item, error) {
	return NewItemWithID(uuid.Nil, attrs)
}

// NewItemWithID creates an item under a pre-assigned id. Purchase lines that
// introduce a new item reserve the id before the ledger creates it.
func NewItemWithID(id uuid.UUID, attrs ItemAttributes) (*Item, error) {
	attrs = attrs.normalized()
	if err := attrs.Validate(); err != nil {
		return nil, err
	}

	item := &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
	}
	item.BaseEntity = shared.NewBaseEntityWithID(id)
	item.assign(attrs)

	item.AddDomainEvent(NewItemCreatedEvent(item))
	return item, nil
}

// Update replaces identity and price attributes
func (i *Item) Update(attrs ItemAttributes) error {
	attrs = attrs.normalized()
	if err := attrs.Validate(); err != nil {
		return err
	}

	i.assign(attrs)
	i.IncrementVersion()
	i.AddDomainEvent(NewItemUpdatedEvent(i))
	return nil
}

// Attributes returns the item's current attributes
func (i *Item) Attributes() ItemAttributes {
	return ItemAttributes{
		TradeName:     i.TradeName,
		GenericName:   i.GenericName,
		Formulation:   i.Formulation,
		Strength:      i.Strength,
		UnitPriceBuy:  i.UnitPriceBuy,
		UnitPriceSell: i.UnitPriceSell,
		ExpiryDate:    copyTime(i.ExpiryDate),
	}
}

// IsExpiredAt reports whether the item has an expiry date on or before t
func (i *Item) IsExpiredAt(t time.Time) bool {
	return i.ExpiryDate != nil && !i.ExpiryDate.After(t)
}

// Clone returns an independent copy without pending events
func (i *Item) Clone() *Item {
	c := *i
	c.BaseAggregateRoot = i.CloneRoot()
	c.ExpiryDate = copyTime(i.ExpiryDate)
	return &c
}

// setStock is reached only through Catalog.CommitStock
func (i *Item) setStock(stock int64) {
	if i.Stock == stock {
		return
	}
	i.Stock = stock
	i.IncrementVersion()
}

func (i *Item) assign(attrs ItemAttributes) {
	i.TradeName = attrs.TradeName
	i.GenericName = attrs.GenericName
	i.Formulation = attrs.Formulation
	i.Strength = attrs.Strength
	i.UnitPriceBuy = attrs.UnitPriceBuy
	i.UnitPriceSell = attrs.UnitPriceSell
	i.ExpiryDate = copyTime(attrs.ExpiryDate)
}

// Validate checks required fields and price signs
func (a ItemAttributes) Validate() error {
	if strings.TrimSpace(a.TradeName) == "" {
		return shared.NewValidationError(shared.CodeValidationFailed, "trade_name", "trade name cannot be empty")
	}
	if len(a.TradeName) > 200 {
		return shared.NewValidationError(shared.CodeValidationFailed, "trade_name", "trade name cannot exceed 200 characters")
	}
	if a.UnitPriceBuy.IsNegative() {
		return shared.NewValidationError(shared.CodeInvalidAmount, "unit_price_buy", "buy price cannot be negative")
	}
	if a.UnitPriceSell.IsNegative() {
		return shared.NewValidationError(shared.CodeInvalidAmount, "unit_price_sell", "sell price cannot be negative")
	}
	return nil
}

func (a ItemAttributes) normalized() ItemAttributes {
	a.TradeName = strings.TrimSpace(a.TradeName)
	a.GenericName = strings.TrimSpace(a.GenericName)
	a.Formulation = strings.TrimSpace(a.Formulation)
	a.Strength = strings.TrimSpace(a.Strength)
	return a
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
