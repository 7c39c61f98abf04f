package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics(t *testing.T) {
	t.Run("nil meter is a no-op", func(t *testing.T) {
		mw, err := HTTPMetrics(nil)
		require.NoError(t, err)

		router := gin.New()
		router.Use(mw)
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("records per route with error code", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

		mw, err := HTTPMetrics(mp.Meter("http.server"))
		require.NoError(t, err)

		router := gin.New()
		router.Use(mw)
		router.GET("/items/:id", func(c *gin.Context) {
			c.Set(ErrorCodeKey, "NOT_FOUND")
			c.JSON(http.StatusNotFound, gin.H{"success": false})
		})

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/"+string(rune('a'+i)), nil))
		}

		m := collectMetric(t, reader, "http_server_request_total")
		require.NotNil(t, m)
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		dp := sum.DataPoints[0]
		assert.Equal(t, int64(3), dp.Value)

		route, _ := dp.Attributes.Value("http.route")
		assert.Equal(t, "/items/:id", route.AsString())
		code, _ := dp.Attributes.Value("error_code")
		assert.Equal(t, "NOT_FOUND", code.AsString())

		assert.NotNil(t, collectMetric(t, reader, "http_server_request_duration_seconds"))
	})
}
