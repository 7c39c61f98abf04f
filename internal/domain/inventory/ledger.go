package inventory

import (
	"math"
	"sort"

	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Adjustment is the net effect of one post on one item
type Adjustment struct {
	ItemID uuid.UUID
	Before int64
	After  int64
}

// Delta returns After - Before
func (a Adjustment) Delta() int64 {
	return a.After - a.Before
}

// Result describes a committed post
type Result struct {
	Adjustments []Adjustment
	Created     []*catalog.Item
	Warnings    []shared.DanglingReferenceWarning
}

// Ledger is the only writer of item stock. Every post is planned and validated
// in full before the catalog is touched.
type Ledger struct {
	catalog *catalog.Catalog
}

// NewLedger creates a ledger over a catalog
func NewLedger(c *catalog.Catalog) *Ledger {
	return &Ledger{catalog: c}
}

// Apply posts movements in the given direction
func (l *Ledger) Apply(direction Direction, movements []Movement) (*Result, error) {
	return l.Post(ApplyBatch(direction, movements))
}

// Reverse undoes movements that were previously applied in the given direction.
// Items missing from the catalog are skipped and reported as warnings.
func (l *Ledger) Reverse(direction Direction, movements []Movement) (*Result, error) {
	return l.Post(ReverseBatch(direction, movements))
}

// Rebalance reverses previous movements and applies next ones as one post,
// so no state between the two is ever visible.
func (l *Ledger) Rebalance(direction Direction, previous, next []Movement) (*Result, error) {
	return l.Post(ReverseBatch(direction, previous), ApplyBatch(direction, next))
}

type itemPlan struct {
	before  int64
	credit  int64
	debit   int64
	created *catalog.Item
	order   int
}

// Post applies batches atomically. Either every batch commits or none does.
func (l *Ledger) Post(batches ...Batch) (*Result, error) {
	plans := make(map[uuid.UUID]*itemPlan)
	result := &Result{}

	for _, batch := range batches {
		if !batch.Direction.IsValid() {
			return nil, shared.NewValidationError(shared.CodeValidationFailed, "direction", "unknown stock direction "+string(batch.Direction))
		}
		for _, m := range batch.Movements {
			if m.Quantity <= 0 {
				return nil, shared.NewValidationError(shared.CodeInvalidQuantity, "quantity", "quantity must be positive")
			}

			plan, err := l.planFor(plans, batch, m, result)
			if err != nil {
				return nil, err
			}
			if plan == nil {
				continue
			}

			var ok bool
			if batch.sign() > 0 {
				plan.credit, ok = addQuantity(plan.credit, m.Quantity)
			} else {
				plan.debit, ok = addQuantity(plan.debit, m.Quantity)
			}
			if !ok {
				return nil, errQuantityOverflow(m.ItemID)
			}
		}
	}

	levels := make(map[uuid.UUID]int64, len(plans))
	for id, plan := range plans {
		available, ok := addQuantity(plan.before, plan.credit)
		if !ok {
			return nil, errQuantityOverflow(id)
		}
		if plan.debit > available {
			return nil, &shared.InsufficientStockError{ItemID: id, Requested: plan.debit, Available: available}
		}
		levels[id] = available - plan.debit
	}

	for _, plan := range plans {
		if plan.created != nil {
			result.Created = append(result.Created, plan.created)
		}
	}
	if err := l.catalog.CommitStock(levels, result.Created); err != nil {
		return nil, err
	}

	result.Adjustments = make([]Adjustment, 0, len(plans))
	for id, plan := range plans {
		result.Adjustments = append(result.Adjustments, Adjustment{ItemID: id, Before: plan.before, After: levels[id]})
	}
	sort.Slice(result.Adjustments, func(i, j int) bool {
		return plans[result.Adjustments[i].ItemID].order < plans[result.Adjustments[j].ItemID].order
	})
	sort.Slice(result.Created, func(i, j int) bool {
		return plans[result.Created[i].ID].order < plans[result.Created[j].ID].order
	})

	return result, nil
}

// planFor finds or starts the plan for a movement's item. A nil plan with no
// error means the movement is skipped.
func (l *Ledger) planFor(plans map[uuid.UUID]*itemPlan, batch Batch, m Movement, result *Result) (*itemPlan, error) {
	if plan, ok := plans[m.ItemID]; ok {
		return plan, nil
	}

	if stock, ok := l.catalog.StockOf(m.ItemID); ok {
		plan := &itemPlan{before: stock, order: len(plans)}
		plans[m.ItemID] = plan
		return plan, nil
	}

	if batch.Reverse {
		result.Warnings = append(result.Warnings, shared.DanglingReferenceWarning{ItemID: m.ItemID, Quantity: m.Quantity})
		return nil, nil
	}

	if m.NewItem == nil || batch.Direction != DirectionPurchase {
		return nil, shared.NewValidationError(shared.CodeUnknownItem, "item_id", "item "+m.ItemID.String()+" does not exist")
	}

	item, err := catalog.NewItemWithID(m.ItemID, *m.NewItem)
	if err != nil {
		return nil, err
	}
	plan := &itemPlan{created: item, order: len(plans)}
	plans[m.ItemID] = plan
	return plan, nil
}

// addQuantity adds two non-negative quantities, reporting false on overflow
func addQuantity(a, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}

func errQuantityOverflow(id uuid.UUID) error {
	return shared.NewValidationError(shared.CodeInvalidQuantity, "quantity", "quantity for item "+id.String()+" is out of range")
}
