package middleware

import (
	"net/http"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"github.com/clinicrx/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// IdempotencyHeader is the header clients use to make a mutation replay-safe
	IdempotencyHeader = "Idempotency-Key"
	// MaxIdempotencyKeyLength bounds the header value.
	MaxIdempotencyKeyLength = 128
)

// Idempotency reserves the Idempotency-Key of every mutating request. A key
// seen again within ttl is answered with 409 DUPLICATE_REQUEST and the
// handler does not run, so stock is never moved twice. The reservation is
// released when the handler fails so the caller can retry.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || !isMutation(c.Request.Method) {
			c.Next()
			return
		}
		if !validHeaderValue(key, MaxIdempotencyKeyLength) {
			abortWithCode(c, dto.ErrCodeBadRequest, "Idempotency-Key is malformed")
			return
		}

		ctx := c.Request.Context()
		scoped := c.Request.Method + " " + c.Request.URL.Path + " " + key
		fresh, err := store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			// the store is an optimization; keep serving without it
			logger.L(ctx).Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			abortWithCode(c, dto.ErrCodeDuplicate, "A request with this Idempotency-Key was already processed")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(ctx, scoped); err != nil {
				logger.L(ctx).Warn("failed to release idempotency key", zap.Error(err))
			}
		}
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func abortWithCode(c *gin.Context, code, message string) {
	c.Set(ErrorCodeKey, code)
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
