package inventory

import (
	"errors"
	"math"
	"testing"

	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCatalog(t *testing.T, stocks ...int64) (*catalog.Catalog, []uuid.UUID) {
	t.Helper()
	c := catalog.NewCatalog()
	ids := make([]uuid.UUID, 0, len(stocks))
	levels := make(map[uuid.UUID]int64)
	for i, stock := range stocks {
		item, err := catalog.NewItem(catalog.ItemAttributes{
			TradeName:     "Item " + string(rune('A'+i)),
			UnitPriceBuy:  decimal.NewFromInt(1),
			UnitPriceSell: decimal.NewFromInt(2),
		})
		require.NoError(t, err)
		require.NoError(t, c.Add(item))
		ids = append(ids, item.ID)
		levels[item.ID] = stock
	}
	require.NoError(t, c.CommitStock(levels, nil))
	return c, ids
}

func stockOf(t *testing.T, c *catalog.Catalog, id uuid.UUID) int64 {
	t.Helper()
	stock, ok := c.StockOf(id)
	require.True(t, ok)
	return stock
}

func TestDirection(t *testing.T) {
	assert.Equal(t, int64(1), DirectionPurchase.Sign())
	assert.Equal(t, int64(-1), DirectionSale.Sign())
	assert.Equal(t, int64(0), Direction("OTHER").Sign())
	assert.False(t, Direction("OTHER").IsValid())
}

func TestLedger_Apply(t *testing.T) {
	t.Run("purchase adds stock", func(t *testing.T) {
		c, ids := createTestCatalog(t, 0, 3)
		ledger := NewLedger(c)

		result, err := ledger.Apply(DirectionPurchase, []Movement{
			{ItemID: ids[0], Quantity: 10},
			{ItemID: ids[1], Quantity: 2},
		})
		require.NoError(t, err)

		assert.Equal(t, int64(10), stockOf(t, c, ids[0]))
		assert.Equal(t, int64(5), stockOf(t, c, ids[1]))
		require.Len(t, result.Adjustments, 2)
		assert.Equal(t, ids[0], result.Adjustments[0].ItemID)
		assert.Equal(t, int64(10), result.Adjustments[0].Delta())
	})

	t.Run("repeated item lines accumulate", func(t *testing.T) {
		c, ids := createTestCatalog(t, 5)
		_, err := NewLedger(c).Apply(DirectionSale, []Movement{
			{ItemID: ids[0], Quantity: 2},
			{ItemID: ids[0], Quantity: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), stockOf(t, c, ids[0]))
	})

	t.Run("sale beyond stock mutates nothing", func(t *testing.T) {
		c, ids := createTestCatalog(t, 5, 1)
		_, err := NewLedger(c).Apply(DirectionSale, []Movement{
			{ItemID: ids[0], Quantity: 2},
			{ItemID: ids[1], Quantity: 2},
		})

		var ise *shared.InsufficientStockError
		require.True(t, errors.As(err, &ise))
		assert.Equal(t, ids[1], ise.ItemID)
		assert.Equal(t, int64(2), ise.Requested)
		assert.Equal(t, int64(1), ise.Available)

		assert.Equal(t, int64(5), stockOf(t, c, ids[0]))
		assert.Equal(t, int64(1), stockOf(t, c, ids[1]))
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		c, ids := createTestCatalog(t, 5)
		_, err := NewLedger(c).Apply(DirectionPurchase, []Movement{{ItemID: ids[0], Quantity: 0}})
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, shared.CodeInvalidQuantity, ve.Code)
	})

	t.Run("quantities that overflow are rejected", func(t *testing.T) {
		c, ids := createTestCatalog(t, 5)
		ledger := NewLedger(c)

		_, err := ledger.Apply(DirectionPurchase, []Movement{{ItemID: ids[0], Quantity: math.MaxInt64}})
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, shared.CodeInvalidQuantity, ve.Code)
		assert.Equal(t, int64(5), stockOf(t, c, ids[0]))

		id := uuid.New()
		_, err = ledger.Apply(DirectionPurchase, []Movement{
			{ItemID: id, Quantity: math.MaxInt64, NewItem: &catalog.ItemAttributes{TradeName: "Huge"}},
			{ItemID: id, Quantity: math.MaxInt64},
			{ItemID: id, Quantity: math.MaxInt64},
		})
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, shared.CodeInvalidQuantity, ve.Code)
		_, exists := c.StockOf(id)
		assert.False(t, exists)

		_, err = ledger.Apply(DirectionSale, []Movement{
			{ItemID: ids[0], Quantity: math.MaxInt64},
			{ItemID: ids[0], Quantity: 1},
		})
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, shared.CodeInvalidQuantity, ve.Code)
	})

	t.Run("purchase creates missing item from attributes", func(t *testing.T) {
		c := catalog.NewCatalog()
		id := uuid.New()
		result, err := NewLedger(c).Apply(DirectionPurchase, []Movement{{
			ItemID:   id,
			Quantity: 7,
			NewItem:  &catalog.ItemAttributes{TradeName: "Seclo", UnitPriceBuy: decimal.NewFromInt(4)},
		}})
		require.NoError(t, err)

		require.Len(t, result.Created, 1)
		assert.Equal(t, id, result.Created[0].ID)
		assert.Equal(t, int64(7), stockOf(t, c, id))
	})

	t.Run("unknown item without attributes", func(t *testing.T) {
		c := catalog.NewCatalog()
		_, err := NewLedger(c).Apply(DirectionPurchase, []Movement{{ItemID: uuid.New(), Quantity: 1}})
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, shared.CodeUnknownItem, ve.Code)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("sale never creates items", func(t *testing.T) {
		c := catalog.NewCatalog()
		_, err := NewLedger(c).Apply(DirectionSale, []Movement{{
			ItemID:   uuid.New(),
			Quantity: 1,
			NewItem:  &catalog.ItemAttributes{TradeName: "Seclo"},
		}})
		require.Error(t, err)
		assert.Equal(t, 0, c.Len())
	})
}

func TestLedger_Reverse(t *testing.T) {
	t.Run("purchase reversal subtracts", func(t *testing.T) {
		c, ids := createTestCatalog(t, 10)
		_, err := NewLedger(c).Reverse(DirectionPurchase, []Movement{{ItemID: ids[0], Quantity: 4}})
		require.NoError(t, err)
		assert.Equal(t, int64(6), stockOf(t, c, ids[0]))
	})

	t.Run("sale reversal adds back", func(t *testing.T) {
		c, ids := createTestCatalog(t, 1)
		_, err := NewLedger(c).Reverse(DirectionSale, []Movement{{ItemID: ids[0], Quantity: 4}})
		require.NoError(t, err)
		assert.Equal(t, int64(5), stockOf(t, c, ids[0]))
	})

	t.Run("purchase reversal cannot go negative", func(t *testing.T) {
		c, ids := createTestCatalog(t, 2)
		_, err := NewLedger(c).Reverse(DirectionPurchase, []Movement{{ItemID: ids[0], Quantity: 4}})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, int64(2), stockOf(t, c, ids[0]))
	})

	t.Run("missing item is a warning", func(t *testing.T) {
		c, ids := createTestCatalog(t, 10)
		missing := uuid.New()
		result, err := NewLedger(c).Reverse(DirectionPurchase, []Movement{
			{ItemID: missing, Quantity: 3},
			{ItemID: ids[0], Quantity: 4},
		})
		require.NoError(t, err)

		require.Len(t, result.Warnings, 1)
		assert.Equal(t, missing, result.Warnings[0].ItemID)
		assert.Equal(t, int64(3), result.Warnings[0].Quantity)
		assert.Equal(t, int64(6), stockOf(t, c, ids[0]))
	})
}

func TestLedger_Rebalance(t *testing.T) {
	t.Run("purchase edit from 10 to 6", func(t *testing.T) {
		c, ids := createTestCatalog(t, 0)
		ledger := NewLedger(c)

		prev := []Movement{{ItemID: ids[0], Quantity: 10}}
		_, err := ledger.Apply(DirectionPurchase, prev)
		require.NoError(t, err)
		require.Equal(t, int64(10), stockOf(t, c, ids[0]))

		result, err := ledger.Rebalance(DirectionPurchase, prev, []Movement{{ItemID: ids[0], Quantity: 6}})
		require.NoError(t, err)
		assert.Equal(t, int64(6), stockOf(t, c, ids[0]))
		require.Len(t, result.Adjustments, 1)
		assert.Equal(t, int64(-4), result.Adjustments[0].Delta())
	})

	t.Run("sale edit may reuse its own quantity", func(t *testing.T) {
		c, ids := createTestCatalog(t, 0)
		prev := []Movement{{ItemID: ids[0], Quantity: 5}}

		_, err := NewLedger(c).Rebalance(DirectionSale, prev, []Movement{{ItemID: ids[0], Quantity: 5}})
		require.NoError(t, err)
		assert.Equal(t, int64(0), stockOf(t, c, ids[0]))
	})

	t.Run("failed apply leaves reversal unapplied", func(t *testing.T) {
		c, ids := createTestCatalog(t, 1)
		prev := []Movement{{ItemID: ids[0], Quantity: 2}}

		_, err := NewLedger(c).Rebalance(DirectionSale, prev, []Movement{{ItemID: ids[0], Quantity: 9}})
		var ise *shared.InsufficientStockError
		require.True(t, errors.As(err, &ise))
		assert.Equal(t, int64(3), ise.Available)
		assert.Equal(t, int64(1), stockOf(t, c, ids[0]))
	})
}

func TestResult_Events(t *testing.T) {
	c, ids := createTestCatalog(t, 5, 5)
	result, err := NewLedger(c).Post(
		ReverseBatch(DirectionSale, []Movement{{ItemID: ids[0], Quantity: 1}, {ItemID: ids[1], Quantity: 2}}),
		ApplyBatch(DirectionSale, []Movement{{ItemID: ids[0], Quantity: 1}}),
	)
	require.NoError(t, err)

	source := uuid.New()
	events := result.Events("SalesInvoice", source)
	require.Len(t, events, 1)
	adjusted := events[0].(*StockAdjustedEvent)
	assert.Equal(t, ids[1], adjusted.ItemID)
	assert.Equal(t, int64(7), adjusted.After)
	assert.Equal(t, source, adjusted.SourceID)
}

func TestReconcile(t *testing.T) {
	c, ids := createTestCatalog(t, 0, 0)
	ledger := NewLedger(c)

	purchase := ApplyBatch(DirectionPurchase, []Movement{{ItemID: ids[0], Quantity: 10}, {ItemID: ids[1], Quantity: 4}})
	sale := ApplyBatch(DirectionSale, []Movement{{ItemID: ids[0], Quantity: 3}})
	_, err := ledger.Post(purchase)
	require.NoError(t, err)
	_, err = ledger.Post(sale)
	require.NoError(t, err)

	assert.Empty(t, Reconcile(c, []Batch{purchase, sale}))

	t.Run("reports drift", func(t *testing.T) {
		drifts := Reconcile(c, []Batch{purchase})
		require.Len(t, drifts, 1)
		assert.Equal(t, ids[0], drifts[0].ItemID)
		assert.Equal(t, int64(10), drifts[0].Expected)
		assert.Equal(t, int64(7), drifts[0].Actual)
		assert.Equal(t, int64(-3), drifts[0].Difference())
	})
}
