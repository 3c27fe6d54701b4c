package handlers

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/vuln-analysis-service/internal/observability"
	"github.com/spec-kit/vuln-analysis-service/internal/persistence"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	artifactDir string
	redis       *persistence.Redis
	metrics     *observability.Metrics
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version, artifactDir string, redis *persistence.Redis, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, artifactDir: artifactDir, redis: redis, metrics: metrics}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if err := h.checkArtifactDir(); err != nil {
		depStatus["artifact_dir"] = err.Error()
		ready = false
	} else {
		depStatus["artifact_dir"] = "ok"
	}

	// Redis only backs artifact eviction; an outage degrades retention, not
	// the pipeline, so it is reported without failing readiness.
	if err := h.redis.Ping(ctx); err != nil {
		depStatus["redis"] = "degraded: " + err.Error()
	} else {
		depStatus["redis"] = "ok"
	}

	if ready {
		runs, failures, mock := h.metrics.AnalysisCounts()
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
			"analyses": fiber.Map{
				"completed": runs,
				"failed":    failures,
				"mock":      mock,
			},
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

// checkArtifactDir verifies the artifact directory is writable.
func (h *HealthHandler) checkArtifactDir() error {
	probe := filepath.Join(h.artifactDir, ".readiness_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
