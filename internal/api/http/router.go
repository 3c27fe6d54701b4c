package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/vuln-analysis-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Analysis  *handlers.AnalysisHandler
	Artifacts *handlers.ArtifactsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/analyze", cfg.Analysis.Analyze)

	download := app.Group("/download")
	download.Get("/markdown/:filename", cfg.Artifacts.DownloadMarkdown)
	download.Get("/json/:filename", cfg.Artifacts.DownloadJSON)
}
