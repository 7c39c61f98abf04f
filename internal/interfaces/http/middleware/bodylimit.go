package middleware

import (
	"net/http"

	"github.com/clinicrx/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size", GetRequestID(c))
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp)
			return
		}

		// Wrap the body with a limited reader for streaming requests
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
