package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func addItem(t *testing.T, s *MemoryStore, name string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := s.Execute(context.Background(), func(snap *state.Snapshot) error {
		item, err := catalog.NewItem(catalog.ItemAttributes{TradeName: name, UnitPriceSell: decimal.NewFromInt(1)})
		if err != nil {
			return err
		}
		id = item.ID
		return snap.Items.Add(item)
	})
	require.NoError(t, err)
	return id
}

func TestMemoryStore_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("commits and bumps revision", func(t *testing.T) {
		s := NewMemoryStore(nil, zap.NewNop())
		id := addItem(t, s, "Napa")

		assert.Equal(t, int64(1), s.Revision())
		err := s.View(ctx, func(snap *state.Snapshot) error {
			_, ok := snap.Items.Get(id)
			assert.True(t, ok)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("discards on error", func(t *testing.T) {
		s := NewMemoryStore(nil, zap.NewNop())
		id := addItem(t, s, "Napa")
		boom := errors.New("boom")

		err := s.Execute(ctx, func(snap *state.Snapshot) error {
			if err := snap.Items.CommitStock(map[uuid.UUID]int64{id: 50}, nil); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		assert.Equal(t, int64(1), s.Revision())
		snap := s.Snapshot()
		stock, _ := snap.Items.StockOf(id)
		assert.Equal(t, int64(0), stock)
	})

	t.Run("snapshot copies are independent", func(t *testing.T) {
		s := NewMemoryStore(nil, zap.NewNop())
		id := addItem(t, s, "Napa")

		copySnap := s.Snapshot()
		require.NoError(t, copySnap.Items.CommitStock(map[uuid.UUID]int64{id: 7}, nil))

		stock, _ := s.Snapshot().Items.StockOf(id)
		assert.Equal(t, int64(0), stock)
	})

	t.Run("serializes writers", func(t *testing.T) {
		s := NewMemoryStore(nil, zap.NewNop())
		id := addItem(t, s, "Napa")

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Execute(ctx, func(snap *state.Snapshot) error {
					stock, _ := snap.Items.StockOf(id)
					return snap.Items.CommitStock(map[uuid.UUID]int64{id: stock + 1}, nil)
				})
			}()
		}
		wg.Wait()

		stock, _ := s.Snapshot().Items.StockOf(id)
		assert.Equal(t, int64(20), stock)
		assert.Equal(t, int64(21), s.Revision())
	})
}

func TestMemoryStore_Replace(t *testing.T) {
	s := NewMemoryStore(nil, nil)
	loaded := state.NewSnapshot()
	loaded.Revision = 42

	s.Replace(loaded)
	assert.Equal(t, int64(42), s.Revision())

	addItem(t, s, "Napa")
	assert.Equal(t, int64(43), s.Revision())
}
