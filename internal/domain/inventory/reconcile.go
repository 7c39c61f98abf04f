package inventory

import (
	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// Drift is a mismatch between an item's stock and the net effect of the
// documents that are currently in force
type Drift struct {
	ItemID    uuid.UUID `json:"item_id"`
	TradeName string    `json:"trade_name"`
	Expected  int64     `json:"expected"`
	Actual    int64     `json:"actual"`
}

// Difference returns Actual - Expected
func (d Drift) Difference() int64 {
	return d.Actual - d.Expected
}

// Reconcile compares catalog stock against the net effect of posted batches.
// Reverse batches are ignored: a reversed document is simply not passed in.
func Reconcile(c *catalog.Catalog, posted []Batch) []Drift {
	expected := make(map[uuid.UUID]int64)
	for _, batch := range posted {
		if batch.Reverse {
			continue
		}
		for _, m := range batch.Movements {
			expected[m.ItemID] += batch.Direction.Sign() * m.Quantity
		}
	}

	drifts := make([]Drift, 0)
	for _, item := range c.List() {
		want := expected[item.ID]
		if want != item.Stock {
			drifts = append(drifts, Drift{ItemID: item.ID, TradeName: item.TradeName, Expected: want, Actual: item.Stock})
		}
		delete(expected, item.ID)
	}
	for id, want := range expected {
		if want != 0 {
			drifts = append(drifts, Drift{ItemID: id, Expected: want, Actual: 0})
		}
	}
	return drifts
}
