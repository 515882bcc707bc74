package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"siteforge/internal/domain"
	"siteforge/internal/service/sitefile"
)

// PreviewHandler serves generated sites by public slug. Unlike the API
// handlers it writes raw file content, not JSON.
type PreviewHandler struct {
	fileService *sitefile.Service
	logger      *slog.Logger
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(fileService *sitefile.Service, logger *slog.Logger) *PreviewHandler {
	return &PreviewHandler{fileService: fileService, logger: logger}
}

// ServeFile resolves a preview request to the latest-active file content
// GET /preview/{slug}/{path...}
func (h *PreviewHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		http.NotFound(w, r)
		return
	}

	file, err := h.fileService.ResolvePreview(r.Context(), slug, r.PathValue("path"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("preview resolution failed", "slug", slug, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Last-Modified", file.ModifiedAt.UTC().Format(http.TimeFormat))
	w.Write([]byte(file.Content))
}
