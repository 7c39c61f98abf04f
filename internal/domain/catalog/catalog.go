package catalog

import (
	"strings"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Catalog holds every item keyed by id, in creation order
type Catalog struct {
	items *shared.Collection[*Item]
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{items: shared.NewCollection[*Item]()}
}

// Add inserts a new item
func (c *Catalog) Add(item *Item) error {
	if c.items.Has(item.ID) {
		return shared.ErrAlreadyExists
	}
	c.items.Put(item)
	return nil
}

// Restore inserts or replaces an item loaded from storage
func (c *Catalog) Restore(item *Item) {
	c.items.Put(item)
}

// Get returns the item with the given id
func (c *Catalog) Get(id uuid.UUID) (*Item, bool) {
	return c.items.Get(id)
}

// MustGet returns the item or ErrNotFound
func (c *Catalog) MustGet(id uuid.UUID) (*Item, error) {
	item, ok := c.items.Get(id)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

// StockOf returns the stock of an item and whether it exists
func (c *Catalog) StockOf(id uuid.UUID) (int64, bool) {
	item, ok := c.items.Get(id)
	if !ok {
		return 0, false
	}
	return item.Stock, true
}

// Remove deletes an item. Callers must check references first.
func (c *Catalog) Remove(id uuid.UUID) error {
	if !c.items.Remove(id) {
		return shared.ErrNotFound
	}
	return nil
}

// List returns all items in creation order
func (c *Catalog) List() []*Item {
	return c.items.All()
}

// Len returns the number of items
func (c *Catalog) Len() int {
	return c.items.Len()
}

// FindByTradeName returns items whose trade name matches case-insensitively
func (c *Catalog) FindByTradeName(name string) []*Item {
	key := FoldName(name)
	if key == "" {
		return nil
	}
	return c.items.Filter(func(item *Item) bool {
		return FoldName(item.TradeName) == key
	})
}

// LowStock returns items whose stock is at or below threshold
func (c *Catalog) LowStock(threshold int64) []*Item {
	return c.items.Filter(func(item *Item) bool {
		return item.Stock <= threshold
	})
}

// ExpiringBefore returns items with an expiry date on or before t
func (c *Catalog) ExpiringBefore(t time.Time) []*Item {
	return c.items.Filter(func(item *Item) bool {
		return item.IsExpiredAt(t)
	})
}

// CommitStock writes absolute stock levels and inserts newly created items.
// Every value is validated before anything is written, so a rejected commit
// leaves the catalog untouched. Only the stock ledger should call this.
func (c *Catalog) CommitStock(levels map[uuid.UUID]int64, created []*Item) error {
	pending := make(map[uuid.UUID]*Item, len(created))
	for _, item := range created {
		if c.items.Has(item.ID) {
			return shared.ErrAlreadyExists
		}
		pending[item.ID] = item
	}

	for id, level := range levels {
		if level < 0 {
			return &shared.InsufficientStockError{ItemID: id, Requested: -level, Available: 0}
		}
		if _, ok := pending[id]; ok {
			continue
		}
		if !c.items.Has(id) {
			return shared.NewValidationError(shared.CodeUnknownItem, "item_id", "item "+id.String()+" does not exist")
		}
	}

	for _, item := range created {
		c.items.Put(item)
	}
	for id, level := range levels {
		item, _ := c.items.Get(id)
		item.setStock(level)
	}
	return nil
}

// Clone deep-copies the catalog
func (c *Catalog) Clone() *Catalog {
	return &Catalog{items: c.items.Clone()}
}

// FoldName normalizes whitespace and case of a trade name. Casers are stateful, so one is built per call.
func FoldName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// AmbiguousTradeNameError reports that name matches existing items. The
// candidates let the caller choose between merging and creating anew.
func AmbiguousTradeNameError(name string, matches []*Item) *shared.ValidationError {
	verr := shared.NewValidationError(shared.CodeAmbiguousTradeName, "trade_name",
		"trade name "+strings.TrimSpace(name)+" matches an existing item")
	for _, m := range matches {
		verr.Candidates = append(verr.Candidates, m.ID)
	}
	return verr
}
