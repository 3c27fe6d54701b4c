package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/vuln-analysis-service/internal/api/dto"
	"github.com/spec-kit/vuln-analysis-service/internal/config"
	"github.com/spec-kit/vuln-analysis-service/internal/events"
	"github.com/spec-kit/vuln-analysis-service/internal/observability"
	"github.com/spec-kit/vuln-analysis-service/internal/repository"
	"github.com/spec-kit/vuln-analysis-service/internal/service"
	apperrors "github.com/spec-kit/vuln-analysis-service/pkg/util"
)

func newTestApp(t *testing.T, provider AnalysisConfigProvider) (*fiber.App, *repository.ArtifactStore) {
	t.Helper()
	store := repository.NewArtifactStore(t.TempDir(), time.Hour, nil, nil)
	svc := service.NewAnalysisService(service.AnalysisDependencies{
		Store:      store,
		Dispatcher: events.NewInMemoryDispatcher(nil),
		Metrics:    observability.NewMetrics(),
	})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{
				"error": fiber.Map{"code": domainErr.Code, "message": domainErr.Message},
			})
		}
		return nil
	})

	analysisHandler := NewAnalysisHandler(svc, provider, zap.NewNop())
	artifactsHandler := NewArtifactsHandler(store)
	app.Post("/analyze", analysisHandler.Analyze)
	app.Get("/download/markdown/:filename", artifactsHandler.DownloadMarkdown)
	app.Get("/download/json/:filename", artifactsHandler.DownloadJSON)
	return app, store
}

func mockProvider() AnalysisConfigProvider {
	return func() (config.AnalysisConfig, error) {
		return config.AnalysisConfig{
			Model:          "claude-sonnet-4",
			MaxTokens:      4000,
			Temperature:    0.1,
			TimeoutSeconds: 5,
			MockMode:       true,
		}, nil
	}
}

func multipartUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, content := range fields {
		part, err := writer.CreateFormFile(field, field+".txt")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAnalyzeMockModeSuccess(t *testing.T) {
	app, _ := newTestApp(t, mockProvider())

	body, contentType := multipartUpload(t, map[string]string{
		"severity_file": "Critical: CVSS>=9",
		"json_file":     `{"tickets":[{"id":1}]}`,
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result dto.AnalyzeSuccessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.TicketsAnalyzed)
	assert.Equal(t, "claude-sonnet-4", result.ModelUsed)
	assert.True(t, result.MockMode)
	assert.True(t, strings.HasPrefix(result.AnalysisPreview, "# Vulnerability Risk Analysis Report"))
	assert.True(t, strings.HasSuffix(result.MarkdownFile, ".md"))
	assert.True(t, strings.HasSuffix(result.JSONFile, ".json"))
}

func TestAnalyzeMissingFileReportsFailure(t *testing.T) {
	app, _ := newTestApp(t, mockProvider())

	body, contentType := multipartUpload(t, map[string]string{
		"severity_file": "criteria",
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result dto.AnalyzeFailureResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "required")
}

func TestAnalyzeInvalidJSONReportsFailure(t *testing.T) {
	app, _ := newTestApp(t, mockProvider())

	body, contentType := multipartUpload(t, map[string]string{
		"severity_file": "criteria",
		"json_file":     `{"tickets":`,
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	var result dto.AnalyzeFailureResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "invalid JSON")
}

func TestAnalyzeConfigurationFailure(t *testing.T) {
	app, _ := newTestApp(t, func() (config.AnalysisConfig, error) {
		return config.AnalysisConfig{}, errors.New("no settings source")
	})

	body, contentType := multipartUpload(t, map[string]string{
		"severity_file": "criteria",
		"json_file":     `{"tickets":[]}`,
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	var result dto.AnalyzeFailureResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "configuration")
}

func TestDownloadPersistedArtifacts(t *testing.T) {
	app, _ := newTestApp(t, mockProvider())

	body, contentType := multipartUpload(t, map[string]string{
		"severity_file": "criteria",
		"json_file":     `{"tickets":[{"id":1}]}`,
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	var result dto.AnalyzeSuccessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.True(t, result.Success)

	mdResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/download/markdown/"+result.MarkdownFile, nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, mdResp.StatusCode)
	markdown, err := io.ReadAll(mdResp.Body)
	require.NoError(t, err)
	assert.Equal(t, result.Analysis, string(markdown))

	jsonResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/download/json/"+result.JSONFile, nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, jsonResp.StatusCode)
	var enhanced map[string]any
	require.NoError(t, json.NewDecoder(jsonResp.Body).Decode(&enhanced))
	assert.Contains(t, enhanced, "tickets")
}

func TestDownloadWrongExtension(t *testing.T) {
	app, _ := newTestApp(t, mockProvider())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/download/markdown/report.json", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadMissingArtifact(t *testing.T) {
	app, _ := newTestApp(t, mockProvider())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/download/markdown/00000000-0000-0000-0000-000000000000.md", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
