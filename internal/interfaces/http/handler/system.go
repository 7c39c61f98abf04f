package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// RevisionSource reports the revision of the live snapshot
type RevisionSource interface {
	Revision() int64
}

// SystemHandler serves liveness and readiness probes
type SystemHandler struct {
	revisions RevisionSource
	checks    map[string]HealthCheck
	timeout   time.Duration
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(revisions RevisionSource) *SystemHandler {
	return &SystemHandler{
		revisions: revisions,
		checks:    make(map[string]HealthCheck),
		timeout:   2 * time.Second,
	}
}

// AddCheck registers a readiness probe under name
func (h *SystemHandler) AddCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// Live GET /health/live
func (h *SystemHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every registered probe. GET /health/ready
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			logger.L(ctx).Warn("Health check failed", zap.String("check", name), zap.Error(err))
			results[name] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	body := gin.H{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"revision": h.revisions.Revision(),
		"checks":   results,
	}
	if status != http.StatusOK {
		body["status"] = "unhealthy"
	}
	c.JSON(status, body)
}
