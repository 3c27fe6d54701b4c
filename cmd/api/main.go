package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/vuln-analysis-service/internal/api/http"
	"github.com/spec-kit/vuln-analysis-service/internal/api/http/handlers"
	"github.com/spec-kit/vuln-analysis-service/internal/config"
	"github.com/spec-kit/vuln-analysis-service/internal/events"
	"github.com/spec-kit/vuln-analysis-service/internal/observability"
	"github.com/spec-kit/vuln-analysis-service/internal/persistence"
	"github.com/spec-kit/vuln-analysis-service/internal/repository"
	"github.com/spec-kit/vuln-analysis-service/internal/service"
	"github.com/spec-kit/vuln-analysis-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := repository.NewArtifactStore(cfg.Artifacts.Dir, cfg.Artifacts.TTL(), redis.Client, logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	auditService := service.NewAuditService(dispatcher, logger)
	auditService.RegisterHandlers()

	analysisService := service.NewAnalysisService(service.AnalysisDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
	})

	worker.StartArtifactJanitor(ctx, store, dispatcher, cfg.Artifacts.JanitorInterval(), logger)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 32 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Artifacts.Dir, redis, metrics)
	analysisHandler := handlers.NewAnalysisHandler(analysisService, freshAnalysisConfig, logger)
	artifactsHandler := handlers.NewArtifactsHandler(store)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    healthHandler,
		Analysis:  analysisHandler,
		Artifacts: artifactsHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

// freshAnalysisConfig re-reads the environment for every request so mock mode
// and endpoint settings can change without a restart.
func freshAnalysisConfig() (config.AnalysisConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.AnalysisConfig{}, err
	}
	return cfg.Analysis, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
