package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinicrx/backend/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}
func (failingStore) IsProcessed(context.Context, string) (bool, error) { return false, nil }
func (failingStore) Release(context.Context, string) error { return nil }
func (failingStore) Close() error { return nil }

func newIdempotentRouter(t *testing.T, status *int) (*gin.Engine, *int) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	calls := 0
	router := gin.New()
	router.Use(RequestID(), Idempotency(store, time.Hour))
	router.POST("/sales", func(c *gin.Context) {
		calls++
		c.Status(*status)
	})
	router.GET("/sales", func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})
	return router, &calls
}

func send(router *gin.Engine, method, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/sales", nil)
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("replayed key is rejected without running the handler", func(t *testing.T) {
		status := http.StatusCreated
		router, calls := newIdempotentRouter(t, &status)

		first := send(router, http.MethodPost, "sale-1")
		assert.Equal(t, http.StatusCreated, first.Code)

		second := send(router, http.MethodPost, "sale-1")
		assert.Equal(t, http.StatusConflict, second.Code)
		assert.Contains(t, second.Body.String(), "DUPLICATE_REQUEST")
		assert.Equal(t, 1, *calls)
	})

	t.Run("failed request releases the key", func(t *testing.T) {
		status := http.StatusUnprocessableEntity
		router, calls := newIdempotentRouter(t, &status)

		assert.Equal(t, http.StatusUnprocessableEntity, send(router, http.MethodPost, "sale-2").Code)
		status = http.StatusCreated
		assert.Equal(t, http.StatusCreated, send(router, http.MethodPost, "sale-2").Code)
		assert.Equal(t, 2, *calls)
	})

	t.Run("requests without key and reads pass through", func(t *testing.T) {
		status := http.StatusCreated
		router, calls := newIdempotentRouter(t, &status)

		send(router, http.MethodPost, "")
		send(router, http.MethodPost, "")
		send(router, http.MethodGet, "read-1")
		send(router, http.MethodGet, "read-1")
		assert.Equal(t, 4, *calls)
	})

	t.Run("store failure does not block the request", func(t *testing.T) {
		router := gin.New()
		router.Use(Idempotency(failingStore{}, time.Hour))
		router.POST("/sales", func(c *gin.Context) { c.Status(http.StatusCreated) })

		w := send(router, http.MethodPost, "sale-3")
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("malformed key is a bad request", func(t *testing.T) {
		status := http.StatusCreated
		router, calls := newIdempotentRouter(t, &status)

		w := send(router, http.MethodPost, "bad\x02key")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, *calls)
	})
}
