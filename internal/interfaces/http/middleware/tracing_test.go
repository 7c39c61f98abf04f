package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// startSpan stands in for otelgin so the test controls the provider.
func startSpan(tp *sdktrace.TracerProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tp.Tracer("test").Start(c.Request.Context(), c.FullPath())
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func TestSpanEnricher(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	router := gin.New()
	router.Use(RequestID(), Operator(), startSpan(tp), SpanEnricher())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/stock", func(c *gin.Context) {
		c.Set(ErrorCodeKey, "INSUFFICIENT_STOCK")
		c.Status(http.StatusUnprocessableEntity)
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-ok")
	req.Header.Set(OperatorHeader, "counter-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stock", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, codes.Unset, ok.Status().Code)
	attrs := map[string]string{}
	for _, kv := range ok.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "req-ok", attrs["request_id"])
	assert.Equal(t, "counter-1", attrs["operator"])

	failed := spans[1]
	assert.Equal(t, codes.Error, failed.Status().Code)
	var code string
	for _, kv := range failed.Attributes() {
		if kv.Key == "error_code" {
			code = kv.Value.AsString()
		}
	}
	assert.Equal(t, "INSUFFICIENT_STOCK", code)
}

func TestTracingDisabled(t *testing.T) {
	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false}), SpanEnricher())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
