package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/vuln-analysis-service/internal/repository"
	apperrors "github.com/spec-kit/vuln-analysis-service/pkg/util"
)

// Download filenames presented to the browser.
const (
	markdownDownloadName = "vulnerability_analysis.md"
	jsonDownloadName     = "enhanced_tickets.json"
)

// ArtifactsHandler serves persisted analysis artifacts by handle.
type ArtifactsHandler struct {
	store *repository.ArtifactStore
}

// NewArtifactsHandler constructs handler.
func NewArtifactsHandler(store *repository.ArtifactStore) *ArtifactsHandler {
	return &ArtifactsHandler{store: store}
}

// DownloadMarkdown GET /download/markdown/:filename.
func (h *ArtifactsHandler) DownloadMarkdown(c *fiber.Ctx) error {
	return h.download(c, repository.ExtMarkdown, markdownDownloadName)
}

// DownloadJSON GET /download/json/:filename.
func (h *ArtifactsHandler) DownloadJSON(c *fiber.Ctx) error {
	return h.download(c, repository.ExtJSON, jsonDownloadName)
}

// download streams an artifact as an attachment. The handle is validated
// before storage is touched.
func (h *ArtifactsHandler) download(c *fiber.Ctx, wantExt, downloadName string) error {
	handle := c.Params("filename")
	path, err := h.store.Path(handle, wantExt)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return apperrors.NewArtifactNotFound(handle)
	}
	return c.Download(path, downloadName)
}
