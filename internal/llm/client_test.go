package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/vuln-analysis-service/internal/config"
	apperrors "github.com/spec-kit/vuln-analysis-service/pkg/util"
)

func testConfig(url string) config.AnalysisConfig {
	return config.AnalysisConfig{
		APIURL:         url,
		APIKey:         "test-key",
		Model:          "claude-sonnet-4",
		MaxTokens:      4000,
		Temperature:    0.1,
		TimeoutSeconds: 5,
	}
}

func TestCompleteMockModeSkipsNetwork(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1") // nothing listens here
	cfg.MockMode = true
	client := NewChatClient(cfg, zap.NewNop())

	for i := 0; i < 3; i++ {
		text, err := client.Complete(context.Background(), "prompt")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(text, "# Vulnerability Risk Analysis Report"))
		assert.Equal(t, MockReport, text)
	}
}

func TestCompleteExtractsFirstChoiceContent(t *testing.T) {
	var captured map[string]any
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"generated analysis"}}]}`))
	}))
	defer srv.Close()

	client := NewChatClient(testConfig(srv.URL), zap.NewNop())
	text, err := client.Complete(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "generated analysis", text)

	assert.Equal(t, "Bearer test-key", authHeader)
	assert.Equal(t, "claude-sonnet-4", captured["model"])
	assert.Equal(t, float64(4000), captured["max_tokens"])
	assert.Equal(t, 0.1, captured["temperature"])
	messages := captured["messages"].([]any)
	require.Len(t, messages, 1)
	message := messages[0].(map[string]any)
	assert.Equal(t, "user", message["role"])
	assert.Equal(t, "the prompt", message["content"])
}

func TestCompleteNon2xxIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewChatClient(testConfig(srv.URL), zap.NewNop())
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAPIError))
}

func TestCompleteTransportFailureIsAPIError(t *testing.T) {
	client := NewChatClient(testConfig("http://127.0.0.1:1"), zap.NewNop())
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAPIError))
}

func TestCompleteUnparseableBodyIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("definitely not json"))
	}))
	defer srv.Close()

	client := NewChatClient(testConfig(srv.URL), zap.NewNop())
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAPIError))
}

func TestCompleteMissingContentIsUnexpectedFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewChatClient(testConfig(srv.URL), zap.NewNop())
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnexpectedResponseFormat))
}
