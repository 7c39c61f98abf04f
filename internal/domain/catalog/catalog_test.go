package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, names ...string) (*Catalog, []*Item) {
	t.Helper()
	c := NewCatalog()
	items := make([]*Item, 0, len(names))
	for _, name := range names {
		item, err := NewItem(testAttributes(name))
		require.NoError(t, err)
		require.NoError(t, c.Add(item))
		items = append(items, item)
	}
	return c, items
}

func TestCatalog_Add(t *testing.T) {
	c, items := newTestCatalog(t, "Napa")
	assert.ErrorIs(t, c.Add(items[0]), shared.ErrAlreadyExists)
	assert.Equal(t, 1, c.Len())
}

func TestCatalog_FindByTradeName(t *testing.T) {
	c, items := newTestCatalog(t, "Napa Extra", "Seclo", "napa  extra")

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		found := c.FindByTradeName("NAPA EXTRA")
		require.Len(t, found, 2)
		assert.Equal(t, items[0].ID, found[0].ID)
		assert.Equal(t, items[2].ID, found[1].ID)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, c.FindByTradeName("Maxpro"))
	})

	t.Run("blank name", func(t *testing.T) {
		assert.Nil(t, c.FindByTradeName("  "))
	})
}

func TestCatalog_CommitStock(t *testing.T) {
	t.Run("writes levels and bumps version", func(t *testing.T) {
		c, items := newTestCatalog(t, "Napa", "Seclo")
		require.NoError(t, c.CommitStock(map[uuid.UUID]int64{items[0].ID: 10}, nil))

		got, _ := c.Get(items[0].ID)
		assert.Equal(t, int64(10), got.Stock)
		assert.Equal(t, 2, got.GetVersion())

		other, _ := c.Get(items[1].ID)
		assert.Equal(t, 1, other.GetVersion())
	})

	t.Run("inserts created items", func(t *testing.T) {
		c := NewCatalog()
		item, err := NewItem(testAttributes("Napa"))
		require.NoError(t, err)

		require.NoError(t, c.CommitStock(map[uuid.UUID]int64{item.ID: 5}, []*Item{item}))
		stock, ok := c.StockOf(item.ID)
		assert.True(t, ok)
		assert.Equal(t, int64(5), stock)
	})

	t.Run("negative level leaves catalog untouched", func(t *testing.T) {
		c, items := newTestCatalog(t, "Napa", "Seclo")
		require.NoError(t, c.CommitStock(map[uuid.UUID]int64{items[0].ID: 4, items[1].ID: 4}, nil))

		err := c.CommitStock(map[uuid.UUID]int64{items[0].ID: 8, items[1].ID: -1}, nil)
		var ise *shared.InsufficientStockError
		require.True(t, errors.As(err, &ise))

		first, _ := c.StockOf(items[0].ID)
		second, _ := c.StockOf(items[1].ID)
		assert.Equal(t, int64(4), first)
		assert.Equal(t, int64(4), second)
	})

	t.Run("unknown item", func(t *testing.T) {
		c := NewCatalog()
		err := c.CommitStock(map[uuid.UUID]int64{uuid.New(): 1}, nil)
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, shared.CodeUnknownItem, ve.Code)
	})
}

func TestCatalog_Queries(t *testing.T) {
	c, items := newTestCatalog(t, "Napa", "Seclo")
	require.NoError(t, c.CommitStock(map[uuid.UUID]int64{items[0].ID: 2, items[1].ID: 50}, nil))

	low := c.LowStock(5)
	require.Len(t, low, 1)
	assert.Equal(t, items[0].ID, low[0].ID)

	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items[1].ExpiryDate = &expiry
	expiring := c.ExpiringBefore(expiry.AddDate(0, 1, 0))
	require.Len(t, expiring, 1)
	assert.Equal(t, items[1].ID, expiring[0].ID)
}

func TestCatalog_Clone(t *testing.T) {
	c, items := newTestCatalog(t, "Napa")
	clone := c.Clone()
	require.NoError(t, clone.CommitStock(map[uuid.UUID]int64{items[0].ID: 9}, nil))

	stock, _ := c.StockOf(items[0].ID)
	assert.Equal(t, int64(0), stock)
	cloned, _ := clone.StockOf(items[0].ID)
	assert.Equal(t, int64(9), cloned)
}

func TestCatalog_Remove(t *testing.T) {
	c, items := newTestCatalog(t, "Napa")
	require.NoError(t, c.Remove(items[0].ID))
	assert.ErrorIs(t, c.Remove(items[0].ID), shared.ErrNotFound)
}
