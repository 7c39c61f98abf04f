package middleware

import (
	"context"
	"time"

	"github.com/clinicrx/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// httpMetrics holds all HTTP-related metrics instruments.
type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(
		meter,
		"http_server_request_total",
		"Total number of HTTP requests",
		"{request}",
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency distribution in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	responseSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size distribution in bytes",
		Unit:        "By",
		Boundaries:  []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
	})
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics returns a Gin middleware that counts requests and records their
// latency and response size per route. A nil meter disables it.
func HTTPMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	if meter == nil {
		return func(c *gin.Context) {
			c.Next()
		}, nil
	}

	metrics, err := newHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		metrics.activeRequests.Add(ctx, 1)
		c.Next()
		metrics.activeRequests.Add(ctx, -1)

		metrics.record(ctx, c, time.Since(start))
	}, nil
}

func (m *httpMetrics) record(ctx context.Context, c *gin.Context, elapsed time.Duration) {
	// route pattern, not the raw path, to keep cardinality bounded
	route := c.FullPath()
	if route == "" {
		route = "unknown"
	}
	base := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(route),
	}

	counted := append(base[:len(base):len(base)], telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
	if code := c.GetString(ErrorCodeKey); code != "" {
		counted = append(counted, telemetry.AttrErrorCode.String(code))
	}
	m.requestTotal.Inc(ctx, counted...)
	m.requestDuration.RecordDuration(ctx, elapsed, base...)

	if size := c.Writer.Size(); size > 0 {
		m.responseSize.Record(ctx, float64(size), base...)
	}
}
