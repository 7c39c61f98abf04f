package trade

import (
	"fmt"

	appcatalog "github.com/clinicrx/backend/internal/application/catalog"
	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/clinicrx/backend/internal/domain/inventory"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/clinicrx/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// resolvedLines pairs priced invoice lines with the ledger movements that
// apply them. Movements for items introduced by the invoice carry the
// attributes the ledger creates them from.
type resolvedLines struct {
	lines     []trade.LineItem
	movements []inventory.Movement
}

// resolvePurchaseLines maps purchase inputs onto catalog items. Lines that
// name a new item reserve an id; a second line with the same name in the
// same request joins the first.
func resolvePurchaseLines(items *catalog.Catalog, inputs []PurchaseLineInput) (resolvedLines, error) {
	out := resolvedLines{
		lines:     make([]trade.LineItem, 0, len(inputs)),
		movements: make([]inventory.Movement, 0, len(inputs)),
	}
	if len(inputs) == 0 {
		return out, shared.NewValidationError(shared.CodeEmptyLines, "lines", "at least one line item is required")
	}

	pending := make(map[string]uuid.UUID)
	for i, in := range inputs {
		field := fmt.Sprintf("lines[%d]", i)

		switch {
		case in.ItemID != nil && in.NewItem != nil:
			return out, shared.NewValidationError(shared.CodeValidationFailed, field, "set either item_id or new_item, not both")

		case in.ItemID != nil:
			item, ok := items.Get(*in.ItemID)
			if !ok {
				return out, shared.NewValidationError(shared.CodeUnknownItem, field+".item_id", "item "+in.ItemID.String()+" does not exist")
			}
			if err := out.add(item.ID, item.TradeName, in.Quantity, priceOr(in.UnitPrice, item.UnitPriceBuy), nil); err != nil {
				return out, err
			}

		case in.NewItem != nil:
			price := priceOr(in.UnitPrice, decimal.Zero)
			key := catalog.FoldName(in.NewItem.TradeName)

			if id, ok := pending[key]; ok {
				if err := out.add(id, in.NewItem.TradeName, in.Quantity, price, nil); err != nil {
					return out, err
				}
				continue
			}

			target, err := mergeTarget(items, in.NewItem)
			if err != nil {
				return out, err
			}
			if target != nil {
				if err := out.add(target.ID, target.TradeName, in.Quantity, priceOr(in.UnitPrice, target.UnitPriceBuy), nil); err != nil {
					return out, err
				}
				continue
			}

			attrs := catalog.ItemAttributes{
				TradeName:     in.NewItem.TradeName,
				GenericName:   in.NewItem.GenericName,
				Formulation:   in.NewItem.Formulation,
				Strength:      in.NewItem.Strength,
				UnitPriceBuy:  price,
				UnitPriceSell: in.NewItem.UnitPriceSell,
				ExpiryDate:    in.NewItem.ExpiryDate,
			}
			if err := attrs.Validate(); err != nil {
				return out, err
			}
			id := uuid.New()
			pending[key] = id
			if err := out.add(id, in.NewItem.TradeName, in.Quantity, price, &attrs); err != nil {
				return out, err
			}

		default:
			return out, shared.NewValidationError(shared.CodeUnknownItem, field, "line requires item_id or new_item")
		}
	}
	return out, nil
}

// mergeTarget returns the existing item a new-item line should join, or nil
// when a fresh item is to be created
func mergeTarget(items *catalog.Catalog, in *NewItemInput) (*catalog.Item, error) {
	matches := items.FindByTradeName(in.TradeName)
	if len(matches) == 0 || in.Resolution == NameResolutionCreate {
		return nil, nil
	}
	if in.Resolution != NameResolutionMerge {
		return nil, catalog.AmbiguousTradeNameError(in.TradeName, matches)
	}

	if in.MergeInto == nil {
		if len(matches) == 1 {
			return matches[0], nil
		}
		return nil, catalog.AmbiguousTradeNameError(in.TradeName, matches)
	}
	for _, m := range matches {
		if m.ID == *in.MergeInto {
			return m, nil
		}
	}
	return nil, shared.NewValidationError(shared.CodeValidationFailed, "merge_into", "merge target does not carry trade name "+in.TradeName)
}

func (r *resolvedLines) add(itemID uuid.UUID, name string, quantity int64, price decimal.Decimal, attrs *catalog.ItemAttributes) error {
	line, err := trade.NewLineItem(itemID, name, quantity, price)
	if err != nil {
		return err
	}
	r.lines = append(r.lines, line)
	r.movements = append(r.movements, inventory.Movement{ItemID: itemID, Quantity: quantity, NewItem: attrs})
	return nil
}

// resolveSalesLines prices sales inputs and checks availability the way a
// draft does: each line may take what the item holds minus what earlier
// lines already staged. credit adds back stock the operation will release
// first, such as the lines of an invoice being edited.
func resolveSalesLines(items *catalog.Catalog, customer trade.Customer, inputs []SalesLineInput, credit map[uuid.UUID]int64) ([]trade.LineItem, error) {
	if len(inputs) == 0 {
		return nil, shared.NewValidationError(shared.CodeEmptyLines, "lines", "at least one line item is required")
	}

	draft := trade.NewSalesDraft(customer)
	for i, in := range inputs {
		item, ok := items.Get(in.ItemID)
		if !ok {
			return nil, shared.NewValidationError(shared.CodeUnknownItem, fmt.Sprintf("lines[%d].item_id", i), "item "+in.ItemID.String()+" does not exist")
		}
		stock := item.Stock + credit[item.ID]
		if err := draft.AddLine(item.ID, item.TradeName, stock, in.Quantity, draftPrice(draft, item, in.UnitPrice)); err != nil {
			return nil, err
		}
	}
	return draft.Lines, nil
}

// draftPrice is the explicit price, else the price the item is already staged
// at, else its sell price
func draftPrice(draft *trade.SalesDraft, item *catalog.Item, price *decimal.Decimal) decimal.Decimal {
	if staged, ok := draft.StagedPrice(item.ID); ok && price == nil {
		return staged
	}
	return priceOr(price, item.UnitPriceSell)
}

func priceOr(price *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if price != nil {
		return *price
	}
	return fallback
}

// quantities sums applied line quantities per item
func quantities(lines []trade.LineItem) map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(lines))
	for _, l := range lines {
		out[l.ItemID] += l.Quantity
	}
	return out
}

// touchedItems returns the current state of every item a post adjusted
func touchedItems(snap *state.Snapshot, result *inventory.Result) []appcatalog.ItemResponse {
	out := make([]appcatalog.ItemResponse, 0, len(result.Adjustments))
	for _, adj := range result.Adjustments {
		if item, ok := snap.Items.Get(adj.ItemID); ok {
			out = append(out, appcatalog.ToItemResponse(item))
		}
	}
	return out
}
