package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/vuln-analysis-service/internal/domain"
	apperrors "github.com/spec-kit/vuln-analysis-service/pkg/util"
)

func newTestStore(t *testing.T) *ArtifactStore {
	t.Helper()
	return NewArtifactStore(t.TempDir(), time.Hour, nil, nil)
}

func TestPersistAndReadBackRoundTrip(t *testing.T) {
	store := newTestStore(t)

	artifacts := domain.AnalysisArtifacts{
		MarkdownReport:  "# Report\n\nfindings",
		EnhancedDataset: map[string]any{"tickets": []any{map[string]any{"id": float64(1)}}},
	}
	handles, err := store.Persist(context.Background(), artifacts)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(handles.Markdown, ExtMarkdown))
	assert.True(t, strings.HasSuffix(handles.JSON, ExtJSON))

	mdPath, err := store.Path(handles.Markdown, ExtMarkdown)
	require.NoError(t, err)
	markdown, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Equal(t, []byte(artifacts.MarkdownReport), markdown)

	jsonPath, err := store.Path(handles.JSON, ExtJSON)
	require.NoError(t, err)
	encoded, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, artifacts.EnhancedDataset, decoded)
}

func TestPathRejectsWrongExtension(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Path("report.json", ExtMarkdown)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidArtifactType))

	_, err = store.Path("report.md", ExtJSON)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidArtifactType))
}

func TestPathRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Path("../outside.md", ExtMarkdown)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidArtifactType))
}

func TestPersistFailureLeavesNoArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	store := NewArtifactStore(dir, time.Hour, nil, nil)

	_, err := store.Persist(context.Background(), domain.AnalysisArtifacts{
		MarkdownReport:  "report",
		EnhancedDataset: map[string]any{},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePersistenceFailed))
}

func TestPersistRollsBackMarkdownWhenJSONWriteFails(t *testing.T) {
	dir := t.TempDir()
	store := NewArtifactStore(dir, time.Hour, nil, nil)

	handles := []string{
		"11111111-1111-1111-1111-111111111111",
		"22222222-2222-2222-2222-222222222222",
	}
	next := 0
	store.newHandle = func() string {
		handle := handles[next]
		next++
		return handle
	}
	// A directory squatting on the json path makes the second write fail
	// after the markdown file already exists.
	require.NoError(t, os.Mkdir(filepath.Join(dir, handles[1]+ExtJSON), 0o755))

	_, err := store.Persist(context.Background(), domain.AnalysisArtifacts{
		MarkdownReport:  "report",
		EnhancedDataset: map[string]any{},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePersistenceFailed))

	_, statErr := os.Stat(filepath.Join(dir, handles[0]+ExtMarkdown))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSweepWithoutRedisIsNoop(t *testing.T) {
	store := newTestStore(t)

	handles, err := store.Persist(context.Background(), domain.AnalysisArtifacts{
		MarkdownReport:  "report",
		EnhancedDataset: map[string]any{},
	})
	require.NoError(t, err)

	removed, err := store.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)

	mdPath, err := store.Path(handles.Markdown, ExtMarkdown)
	require.NoError(t, err)
	_, err = os.Stat(mdPath)
	assert.NoError(t, err)
}
