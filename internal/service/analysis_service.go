package service

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/vuln-analysis-service/internal/config"
	"github.com/spec-kit/vuln-analysis-service/internal/domain"
	"github.com/spec-kit/vuln-analysis-service/internal/encoding"
	"github.com/spec-kit/vuln-analysis-service/internal/events"
	"github.com/spec-kit/vuln-analysis-service/internal/llm"
	"github.com/spec-kit/vuln-analysis-service/internal/observability"
	"github.com/spec-kit/vuln-analysis-service/internal/prompt"
	"github.com/spec-kit/vuln-analysis-service/internal/repository"
	"github.com/spec-kit/vuln-analysis-service/internal/splitter"
	apperrors "github.com/spec-kit/vuln-analysis-service/pkg/util"
)

// previewLimit bounds the analysis preview returned to callers.
const previewLimit = 500

// ClientFactory builds a completion client for one run's configuration.
type ClientFactory func(cfg config.AnalysisConfig, logger *zap.Logger) llm.Client

// AnalysisService coordinates the upload-to-artifacts pipeline.
type AnalysisService struct {
	reader     *encoding.Reader
	store      *repository.ArtifactStore
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	newClient  ClientFactory
}

// AnalysisDependencies bundles collaborators for the analysis service.
type AnalysisDependencies struct {
	Store      *repository.ArtifactStore
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	NewClient  ClientFactory
}

// AnalyzeInput carries one request's uploads and run configuration.
type AnalyzeInput struct {
	SeverityFile []byte
	DatasetFile  []byte
	Config       config.AnalysisConfig
	Logger       *zap.Logger
}

// AnalysisOutcome summarizes a successful pipeline run.
type AnalysisOutcome struct {
	RunID           string
	Handles         domain.ArtifactHandles
	TicketsAnalyzed int
	ModelUsed       string
	MockMode        bool
	AnalysisPreview string
	Analysis        string
	EnhancedDataset any
}

// NewAnalysisService constructs the service.
func NewAnalysisService(deps AnalysisDependencies) *AnalysisService {
	factory := deps.NewClient
	if factory == nil {
		factory = func(cfg config.AnalysisConfig, logger *zap.Logger) llm.Client {
			return llm.NewChatClient(cfg, logger)
		}
	}
	return &AnalysisService{
		reader:     encoding.NewReader(),
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		newClient:  factory,
	}
}

// Analyze runs the full pipeline: decode both uploads, parse the dataset,
// build the prompt, call the completion endpoint, split the response and
// persist both artifacts. Any stage failure short-circuits the rest; splitter
// fallbacks are not failures.
func (s *AnalysisService) Analyze(ctx context.Context, input AnalyzeInput) (*AnalysisOutcome, error) {
	logger := input.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	logger.Info("new analysis request")

	severityText, severityEncoding, err := s.reader.Decode(input.SeverityFile)
	if err != nil {
		return nil, s.fail(ctx, logger, runID, "decode_severity", err)
	}
	datasetText, datasetEncoding, err := s.reader.Decode(input.DatasetFile)
	if err != nil {
		return nil, s.fail(ctx, logger, runID, "decode_dataset", err)
	}
	logger.Info("uploads decoded",
		zap.String("severity_encoding", severityEncoding),
		zap.String("dataset_encoding", datasetEncoding))

	dataset, err := domain.ParseTicketDataset(datasetText)
	if err != nil {
		return nil, s.fail(ctx, logger, runID, "parse_dataset", apperrors.NewDatasetParseError(err))
	}
	logger.Info("dataset parsed", zap.Int("ticket_count", dataset.TicketCount()))

	analysisPrompt := prompt.Build(severityText, dataset.Raw)

	client := s.newClient(input.Config, logger)
	analysis, err := client.Complete(ctx, analysisPrompt)
	if err != nil {
		return nil, s.fail(ctx, logger, runID, "completion", err)
	}

	markdown, enhanced := splitter.Split(analysis, dataset.Document)
	artifacts := domain.AnalysisArtifacts{
		MarkdownReport:  markdown,
		EnhancedDataset: enhanced,
	}

	handles, err := s.store.Persist(ctx, artifacts)
	if err != nil {
		return nil, s.fail(ctx, logger, runID, "persist", err)
	}

	outcome := &AnalysisOutcome{
		RunID:           runID,
		Handles:         *handles,
		TicketsAnalyzed: dataset.TicketCount(),
		ModelUsed:       input.Config.Model,
		MockMode:        input.Config.MockMode,
		AnalysisPreview: preview(analysis),
		Analysis:        analysis,
		EnhancedDataset: artifacts.EnhancedDataset,
	}

	s.metrics.RecordAnalysis(outcome.MockMode)
	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAnalysisCompleted,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Payload: events.AnalysisCompletedPayload{
			MarkdownHandle:  handles.Markdown,
			JSONHandle:      handles.JSON,
			TicketsAnalyzed: outcome.TicketsAnalyzed,
			ModelUsed:       outcome.ModelUsed,
			MockMode:        outcome.MockMode,
		},
	})
	logger.Info("analysis request completed",
		zap.String("markdown_handle", handles.Markdown),
		zap.String("json_handle", handles.JSON))
	return outcome, nil
}

// fail records and publishes a stage failure, returning the original error.
func (s *AnalysisService) fail(ctx context.Context, logger *zap.Logger, runID, stage string, err error) error {
	logger.Error("analysis request failed", zap.String("stage", stage), zap.Error(err))
	s.metrics.RecordAnalysisFailure()
	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAnalysisFailed,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Payload:   events.AnalysisFailedPayload{Stage: stage, Error: err.Error()},
	})
	return err
}

func (s *AnalysisService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func preview(analysis string) string {
	if len(analysis) <= previewLimit {
		return analysis
	}
	// Back up to a rune boundary so the cut never splits a multibyte
	// character.
	cut := previewLimit
	for cut > 0 && !utf8.RuneStart(analysis[cut]) {
		cut--
	}
	return analysis[:cut] + "..."
}
