package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/vuln-analysis-service/internal/config"
	apperrors "github.com/spec-kit/vuln-analysis-service/pkg/util"
)

// Client defines the interface for the completion endpoint.
type Client interface {
	// Complete sends a prompt and returns the generated text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// MockReport is the placeholder returned in mock mode. Its first line doubles
// as the report heading callers can recognize in previews.
const MockReport = `# Vulnerability Risk Analysis Report

## Executive Summary
This is a mock analysis response for testing purposes. The actual API call was skipped because mock mode is enabled in the configuration.

## Analysis Results
- Total tickets analyzed: [Mock Data]
- High severity issues: [Mock Data]
- Medium severity issues: [Mock Data]
- Low severity issues: [Mock Data]

## Recommendations
1. Review high-severity vulnerabilities immediately
2. Implement security patches for critical systems
3. Conduct regular security assessments

*Note: This is mock data generated for testing purposes.*
`

// chatRequest is the completion request envelope.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the completion response envelope. Only the first choice's
// message content is consumed.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatClient calls an OpenAI-compatible chat-completion endpoint, or returns
// the canned report in mock mode. A single attempt per call; the caller
// decides whether to resubmit.
type ChatClient struct {
	cfg    config.AnalysisConfig
	http   *http.Client
	logger *zap.Logger
}

// NewChatClient constructs a client for the given run configuration. A nil
// logger disables the diagnostic observer.
func NewChatClient(cfg config.AnalysisConfig, logger *zap.Logger) *ChatClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout()},
		logger: logger,
	}
}

// Complete sends the prompt to the configured endpoint and extracts the
// generated text. Transport failures, timeouts, non-2xx statuses and
// unparseable bodies all surface as API_ERROR; a parseable response without
// choices[0].message.content is UNEXPECTED_RESPONSE_FORMAT.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.logger.Info("completion call starting",
		zap.String("model", c.cfg.Model),
		zap.Int("max_tokens", c.cfg.MaxTokens),
		zap.Float64("temperature", c.cfg.Temperature),
		zap.Int("prompt_length", len(prompt)),
		zap.Bool("mock_mode", c.cfg.MockMode),
	)
	c.logger.Debug("completion prompt", zap.String("prompt", prompt))

	if c.cfg.MockMode {
		c.logger.Info("mock mode enabled, returning placeholder analysis")
		return MockReport, nil
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", apperrors.NewAPIError("failed to encode API request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewAPIError("failed to build API request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("completion request failed", zap.Error(err))
		return "", apperrors.NewAPIError("API request failed", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	c.logger.Info("completion response received", zap.Int("status", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewAPIError("failed to read API response", err)
	}
	c.logger.Debug("completion raw response", zap.ByteString("body", raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperrors.NewAPIError(
			fmt.Sprintf("API request failed with status %d", resp.StatusCode),
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apperrors.NewAPIError("failed to parse API response", err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		c.logger.Error("completion response missing content")
		return "", apperrors.NewUnexpectedResponseFormat("unexpected API response format")
	}

	content := parsed.Choices[0].Message.Content
	c.logger.Info("completion succeeded", zap.Int("content_length", len(content)))
	return content, nil
}
