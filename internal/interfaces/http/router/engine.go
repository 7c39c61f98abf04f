package router

import (
	"fmt"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"github.com/clinicrx/backend/internal/interfaces/http/handler"
	"github.com/clinicrx/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig selects the middleware stack of the gin engine
type EngineConfig struct {
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	Meter          metric.Meter // nil disables HTTP metrics
	MaxBodySize    int64
	TrustedProxies []string
	// Idempotency is nil when Idempotency-Key handling is disabled
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
}

// NewEngine builds a gin engine with the middleware stack applied in order:
// request id, panic recovery, operator, tracing, request log, metrics,
// security headers, body limit and idempotency.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Operator())
	engine.Use(middleware.Tracing(cfg.Tracing))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(httpMetrics)
	engine.Use(middleware.Secure())
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	if cfg.Idempotency != nil {
		engine.Use(middleware.Idempotency(cfg.Idempotency, cfg.IdempotencyTTL))
	}

	engine.NoRoute(handler.NotFoundRoute)
	return engine, nil
}

// RegisterSystem mounts the health probes outside the versioned API
func RegisterSystem(engine *gin.Engine, h *handler.SystemHandler) {
	engine.GET("/health/live", h.Live)
	engine.GET("/health/ready", h.Ready)
}
