package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/vuln-analysis-service/internal/events"
)

// AuditService records pipeline lifecycle events for operators.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventAnalysisCompleted, a.handleAnalysisCompleted)
	a.dispatcher.Subscribe(events.EventAnalysisFailed, a.handleAnalysisFailed)
	a.dispatcher.Subscribe(events.EventArtifactsEvicted, a.handleArtifactsEvicted)
}

func (a *AuditService) handleAnalysisCompleted(ctx context.Context, event events.Event) error {
	a.logger.Info("AnalysisCompleted", zap.String("run_id", event.RunID), zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleAnalysisFailed(ctx context.Context, event events.Event) error {
	a.logger.Warn("AnalysisFailed", zap.String("run_id", event.RunID), zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleArtifactsEvicted(ctx context.Context, event events.Event) error {
	a.logger.Info("ArtifactsEvicted", zap.Any("payload", event.Payload))
	return nil
}
