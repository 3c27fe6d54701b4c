package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/vuln-analysis-service/internal/domain"
	apperrors "github.com/spec-kit/vuln-analysis-service/pkg/util"
)

// Artifact file extensions doubling as artifact kinds.
const (
	ExtMarkdown = ".md"
	ExtJSON     = ".json"
)

// ttlKeyPrefix namespaces artifact handles in the Redis TTL index.
const ttlKeyPrefix = "artifact:ttl:"

// ArtifactStore persists analysis artifacts under opaque uuid handles and
// serves later retrieval by kind and handle. Handles are registered in a
// Redis TTL index; the janitor evicts files whose index entry has expired.
type ArtifactStore struct {
	dir    string
	ttl    time.Duration
	redis  *redis.Client
	logger *zap.Logger

	// newHandle issues the base name for a persisted artifact. Tests swap it
	// out to provoke write collisions.
	newHandle func() string
}

// NewArtifactStore constructs a store rooted at dir. The redis client may be
// nil, disabling TTL tracking.
func NewArtifactStore(dir string, ttl time.Duration, redisClient *redis.Client, logger *zap.Logger) *ArtifactStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactStore{dir: dir, ttl: ttl, redis: redisClient, logger: logger, newHandle: uuid.NewString}
}

// Persist writes both artifacts and returns their handles. Either both files
// exist on success or neither does: a failed second write removes the first.
func (s *ArtifactStore) Persist(ctx context.Context, artifacts domain.AnalysisArtifacts) (*domain.ArtifactHandles, error) {
	encoded, err := json.MarshalIndent(artifacts.EnhancedDataset, "", "  ")
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to encode enhanced dataset", err)
	}

	handles := &domain.ArtifactHandles{
		Markdown: s.newHandle() + ExtMarkdown,
		JSON:     s.newHandle() + ExtJSON,
	}

	markdownPath := filepath.Join(s.dir, handles.Markdown)
	if err := os.WriteFile(markdownPath, []byte(artifacts.MarkdownReport), 0o644); err != nil {
		return nil, apperrors.NewPersistenceError("failed to write markdown artifact", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, handles.JSON), encoded, 0o644); err != nil {
		_ = os.Remove(markdownPath)
		return nil, apperrors.NewPersistenceError("failed to write json artifact", err)
	}

	s.register(ctx, handles.Markdown)
	s.register(ctx, handles.JSON)

	s.logger.Info("artifacts persisted",
		zap.String("markdown_handle", handles.Markdown),
		zap.String("json_handle", handles.JSON))
	return handles, nil
}

// Path resolves a handle to its on-disk location after validating it.
func (s *ArtifactStore) Path(handle, wantExt string) (string, error) {
	if err := validateHandle(handle, wantExt); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, handle), nil
}

// SweepExpired removes artifact files whose TTL index entry has lapsed.
// Without Redis the sweep is a no-op.
func (s *ArtifactStore) SweepExpired(ctx context.Context) (int, error) {
	if s.redis == nil {
		return 0, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ExtMarkdown && ext != ExtJSON {
			continue
		}
		if !isHandleName(name, ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		// A handle can miss its index entry when Redis was down at persist
		// time; the age guard keeps such artifacts until the TTL has truly
		// lapsed.
		if time.Since(info.ModTime()) < s.ttl {
			continue
		}
		exists, err := s.redis.Exists(ctx, ttlKeyPrefix+name).Result()
		if err != nil {
			return removed, err
		}
		if exists > 0 {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to evict expired artifact", zap.String("handle", name), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

// register records a handle in the TTL index. Index failures are warnings:
// the artifact is already persisted and retrievable.
func (s *ArtifactStore) register(ctx context.Context, handle string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, ttlKeyPrefix+handle, time.Now().Unix(), s.ttl).Err(); err != nil {
		s.logger.Warn("failed to register artifact ttl", zap.String("handle", handle), zap.Error(err))
	}
}

// validateHandle rejects wrong extensions and path traversal before any
// storage access.
func validateHandle(handle, wantExt string) error {
	if !strings.HasSuffix(handle, wantExt) {
		return apperrors.NewInvalidArtifactType(handle, wantExt)
	}
	if strings.ContainsAny(handle, "/\\") || handle == wantExt || filepath.Base(handle) != handle {
		return apperrors.NewInvalidArtifactType(handle, wantExt)
	}
	return nil
}

// isHandleName reports whether a file name looks like a store-issued handle,
// keeping the sweep away from unrelated files in a shared directory.
func isHandleName(name, ext string) bool {
	_, err := uuid.Parse(strings.TrimSuffix(name, ext))
	return err == nil
}
