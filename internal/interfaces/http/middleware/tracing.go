package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing returns the otelgin middleware. Span names follow
// "HTTP METHOD route_pattern".
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanEnricher tags the request span with request id and operator, and marks
// it as failed for 4xx/5xx responses. It must run after Tracing, RequestID
// and Operator.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if op := c.GetString(OperatorKey); op != "" {
			span.SetAttributes(attribute.String("operator", op))
		}

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if code := c.GetString(ErrorCodeKey); code != "" {
			span.SetAttributes(attribute.String("error_code", code))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		} else {
			span.SetStatus(codes.Error, "Client Error")
		}
	}
}
