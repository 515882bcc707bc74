package handler

import (
	"log/slog"
	"net/http"

	"siteforge/internal/httputil"
	"siteforge/internal/service/sitefile"
)

// FileHandler handles file listing and out-of-band editor saves
type FileHandler struct {
	fileService *sitefile.Service
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService *sitefile.Service, logger *slog.Logger) *FileHandler {
	return &FileHandler{fileService: fileService, logger: logger}
}

// ListFiles returns the latest-active file tree
// GET /api/sites/{id}/files
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	siteID, ok := PathParam(w, r, "id", "Site ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	files, err := h.fileService.ListFiles(r.Context(), siteID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, files)
}

// SaveFile appends a new version for one file, bypassing the LLM
// PUT /api/sites/{id}/files
func (h *FileHandler) SaveFile(w http.ResponseWriter, r *http.Request) {
	siteID, ok := PathParam(w, r, "id", "Site ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	var req sitefile.SaveFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.SiteID = siteID
	req.UserID = userID

	fv, err := h.fileService.SaveFile(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, fv)
}
