package state

import (
	"testing"
	"time"

	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/clinicrx/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSnapshot(t *testing.T) (*Snapshot, *catalog.Item, *trade.PurchaseInvoice) {
	t.Helper()
	s := NewSnapshot()
	item, err := catalog.NewItem(catalog.ItemAttributes{TradeName: "Napa", UnitPriceSell: decimal.NewFromInt(2)})
	require.NoError(t, err)
	require.NoError(t, s.Items.Add(item))

	line, err := trade.NewLineItem(item.ID, item.TradeName, 10, decimal.NewFromInt(1))
	require.NoError(t, err)
	inv, err := trade.NewPurchaseInvoice("Square", time.Now(), []trade.LineItem{line}, decimal.Zero, decimal.Zero, false)
	require.NoError(t, err)

	_, err = s.Ledger().Apply(inv.Direction(), inv.Movements())
	require.NoError(t, err)
	s.PurchaseInvoices.Put(inv)
	return s, item, inv
}

func TestSnapshot_Clone(t *testing.T) {
	s, item, inv := seedSnapshot(t)
	clone := s.Clone()

	_, err := clone.Ledger().Reverse(inv.Direction(), inv.Movements())
	require.NoError(t, err)
	cloned, _ := clone.PurchaseInvoices.Get(inv.ID)
	require.NoError(t, cloned.MarkReturned())

	stock, _ := s.Items.StockOf(item.ID)
	assert.Equal(t, int64(10), stock)
	original, _ := s.PurchaseInvoices.Get(inv.ID)
	assert.Equal(t, trade.InvoiceStatusPosted, original.Status)
}

func TestSnapshot_ItemReferenced(t *testing.T) {
	s, item, _ := seedSnapshot(t)
	assert.True(t, s.ItemReferenced(item.ID))

	other, err := catalog.NewItem(catalog.ItemAttributes{TradeName: "Seclo"})
	require.NoError(t, err)
	assert.False(t, s.ItemReferenced(other.ID))
}

func TestSnapshot_Reconcile(t *testing.T) {
	s, item, inv := seedSnapshot(t)
	assert.Empty(t, s.Reconcile())

	require.NoError(t, inv.MarkReturned())
	drifts := s.Reconcile()
	require.Len(t, drifts, 1)
	assert.Equal(t, item.ID, drifts[0].ItemID)
	assert.Equal(t, int64(0), drifts[0].Expected)
	assert.Equal(t, int64(10), drifts[0].Actual)
}
