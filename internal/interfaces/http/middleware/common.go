package middleware

import (
	"strings"

	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the caller's request id, echoed on the response
	RequestIDHeader = "X-Request-ID"
	// OperatorHeader names the person at the counter
	OperatorHeader = "X-Operator"
	// RequestIDKey is the gin context key for the request id
	RequestIDKey = "request_id"
	// OperatorKey is the gin context key for the operator
	OperatorKey = "operator"
	// ErrorCodeKey holds the error code of a failed request for logs, spans
	// and metrics
	ErrorCodeKey = "error_code"

	// MaxRequestIDLength bounds caller supplied request ids.
	MaxRequestIDLength = 128
	// MaxOperatorLength bounds the operator header.
	MaxOperatorLength = 64
)

// RequestID adds a unique request ID to each request. A caller supplied id is
// kept when it is printable and short enough.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !validHeaderValue(requestID, MaxRequestIDLength) {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Operator records the X-Operator header so log lines and events can be
// attributed. Requests without one run as "anonymous".
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		op := strings.TrimSpace(c.GetHeader(OperatorHeader))
		if !validHeaderValue(op, MaxOperatorLength) {
			op = "anonymous"
		}
		c.Set(OperatorKey, op)
		c.Request = c.Request.WithContext(logger.WithOperator(c.Request.Context(), op))
		c.Next()
	}
}

// GetRequestID returns the request id set by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

func validHeaderValue(v string, maxLen int) bool {
	if v == "" || len(v) > maxLen {
		return false
	}
	for _, r := range v {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

// Secure adds the response headers every JSON API should send
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}
