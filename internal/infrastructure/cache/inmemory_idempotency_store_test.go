package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *time.Time) {
	t.Helper()
	store := NewInMemoryIdempotencyStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	return store, &now
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("first reservation wins", func(t *testing.T) {
		store, _ := newTestStore(t)

		ok, err := store.MarkProcessed(ctx, "POST /sales-invoices:abc", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.MarkProcessed(ctx, "POST /sales-invoices:abc", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired reservation can be taken again", func(t *testing.T) {
		store, now := newTestStore(t)

		ok, _ := store.MarkProcessed(ctx, "k", time.Minute)
		require.True(t, ok)

		*now = now.Add(time.Minute)
		processed, err := store.IsProcessed(ctx, "k")
		require.NoError(t, err)
		assert.False(t, processed)

		ok, _ = store.MarkProcessed(ctx, "k", time.Minute)
		assert.True(t, ok)
	})
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "k", time.Hour)
	require.NoError(t, store.Release(ctx, "k"))

	processed, err := store.IsProcessed(ctx, "k")
	require.NoError(t, err)
	assert.False(t, processed)
	assert.NoError(t, store.Release(ctx, "never-seen"))
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Size())

	*now = now.Add(2 * time.Minute)
	store.sweep()

	assert.Equal(t, 1, store.Size())
	processed, _ := store.IsProcessed(ctx, "long")
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.MarkProcessed(ctx, "same-key", time.Hour); ok {
				winners.Add(1)
			}
			_, _ = store.MarkProcessed(ctx, fmt.Sprintf("key-%d", i), time.Hour)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, 51, store.Size())
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Millisecond)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
