package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"siteforge/internal/domain"
	"siteforge/internal/httputil"
	imageSvc "siteforge/internal/service/image"
)

// ImageHandler handles prompt image upload and public serving
type ImageHandler struct {
	imageService *imageSvc.Service
	logger       *slog.Logger
}

// NewImageHandler creates a new image handler
func NewImageHandler(imageService *imageSvc.Service, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{imageService: imageService, logger: logger}
}

// Upload stores an image to attach to a later chat turn
// POST /api/sites/{id}/images
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	siteID, ok := PathParam(w, r, "id", "Site ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)

	if err := r.ParseMultipartForm(imageSvc.MaxImageBytes); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "No image provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, imageSvc.MaxImageBytes+1))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Failed to read image")
		return
	}

	img, err := h.imageService.Upload(r.Context(), siteID, userID, header.Header.Get("Content-Type"), data)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]string{
		"id":  img.ID,
		"url": img.PublicURL(),
	})
}

// Serve writes the raw image bytes. Public: generated pages embed these URLs.
// GET /api/images/{id}
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Image ID")
	if !ok {
		return
	}

	img, err := h.imageService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", img.Mime)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(img.Data)
}
