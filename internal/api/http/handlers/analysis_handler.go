package handlers

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/vuln-analysis-service/internal/api/dto"
	"github.com/spec-kit/vuln-analysis-service/internal/config"
	"github.com/spec-kit/vuln-analysis-service/internal/observability"
	"github.com/spec-kit/vuln-analysis-service/internal/service"
	apperrors "github.com/spec-kit/vuln-analysis-service/pkg/util"
)

// AnalysisConfigProvider supplies a fresh analysis configuration snapshot for
// each request, so settings like mock mode apply without a restart.
type AnalysisConfigProvider func() (config.AnalysisConfig, error)

// AnalysisHandler manages the analysis submission endpoint.
type AnalysisHandler struct {
	service    *service.AnalysisService
	configFunc AnalysisConfigProvider
	logger     *zap.Logger
}

// NewAnalysisHandler constructs handler.
func NewAnalysisHandler(analysisService *service.AnalysisService, configFunc AnalysisConfigProvider, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{service: analysisService, configFunc: configFunc, logger: logger}
}

// Analyze POST /analyze. Accepts multipart fields severity_file and
// json_file. Pipeline failures are reported in the body with success=false,
// keeping the transport status 200 for the submitting client.
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	cfg, err := h.configFunc()
	if err != nil {
		return failure(c, apperrors.NewConfigurationMissing("configuration not found or invalid", err))
	}
	if err := cfg.Validate(); err != nil {
		return failure(c, apperrors.NewConfigurationMissing(err.Error(), nil))
	}

	runLogger := observability.NewAnalysisLogger(h.logger, cfg)

	severityFile, err := formFile(c, "severity_file")
	if err != nil {
		return failure(c, err)
	}
	jsonFile, err := formFile(c, "json_file")
	if err != nil {
		return failure(c, err)
	}
	runLogger.Info("processing uploads",
		zap.String("severity_file", severityFile.Filename),
		zap.String("json_file", jsonFile.Filename))

	severityContent, err := readUpload(severityFile)
	if err != nil {
		return failure(c, apperrors.NewValidationError("could not read severity_file", nil))
	}
	jsonContent, err := readUpload(jsonFile)
	if err != nil {
		return failure(c, apperrors.NewValidationError("could not read json_file", nil))
	}

	outcome, err := h.service.Analyze(c.UserContext(), service.AnalyzeInput{
		SeverityFile: severityContent,
		DatasetFile:  jsonContent,
		Config:       cfg,
		Logger:       runLogger,
	})
	if err != nil {
		return failure(c, err)
	}

	return c.JSON(dto.AnalyzeSuccessResponse{
		Success:         true,
		MarkdownFile:    outcome.Handles.Markdown,
		JSONFile:        outcome.Handles.JSON,
		TicketsAnalyzed: outcome.TicketsAnalyzed,
		ModelUsed:       outcome.ModelUsed,
		MockMode:        outcome.MockMode,
		AnalysisPreview: outcome.AnalysisPreview,
		Analysis:        outcome.Analysis,
		ModifiedJSON:    outcome.EnhancedDataset,
	})
}

func formFile(c *fiber.Ctx, field string) (*multipart.FileHeader, error) {
	file, err := c.FormFile(field)
	if err != nil || file == nil {
		return nil, apperrors.NewValidationError("both severity_file and json_file are required", nil)
	}
	if file.Filename == "" {
		return nil, apperrors.NewValidationError("both files must be selected", nil)
	}
	return file, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close() //nolint:errcheck
	return io.ReadAll(file)
}

// failure reports a pipeline error as a success=false body.
func failure(c *fiber.Ctx, err error) error {
	domainErr := apperrors.ToDomainError(err)
	return c.JSON(dto.AnalyzeFailureResponse{Success: false, Error: domainErr.Error()})
}
