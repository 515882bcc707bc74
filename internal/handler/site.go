package handler

import (
	"log/slog"
	"net/http"

	"siteforge/internal/httputil"
	siteSvc "siteforge/internal/service/site"
)

// SiteHandler handles site HTTP requests
type SiteHandler struct {
	siteService *siteSvc.Service
	logger      *slog.Logger
}

// NewSiteHandler creates a new site handler
func NewSiteHandler(siteService *siteSvc.Service, logger *slog.Logger) *SiteHandler {
	return &SiteHandler{siteService: siteService, logger: logger}
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *SiteHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateSite creates a new site
// POST /api/sites
func (h *SiteHandler) CreateSite(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req siteSvc.CreateSiteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = userID

	site, err := h.siteService.CreateSite(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, site)
}

// ListSites lists the caller's sites
// GET /api/sites
func (h *SiteHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	sites, err := h.siteService.ListSites(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sites)
}

// GetSite retrieves a site by ID
// GET /api/sites/{id}
func (h *SiteHandler) GetSite(w http.ResponseWriter, r *http.Request) {
	siteID, ok := PathParam(w, r, "id", "Site ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	site, err := h.siteService.GetSite(r.Context(), siteID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, site)
}

// UpdateSite updates a site
// PATCH /api/sites/{id}
func (h *SiteHandler) UpdateSite(w http.ResponseWriter, r *http.Request) {
	siteID, ok := PathParam(w, r, "id", "Site ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	var req siteSvc.UpdateSiteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	site, err := h.siteService.UpdateSite(r.Context(), siteID, userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, site)
}

// DeleteSite deletes a site with its transcript and file history
// DELETE /api/sites/{id}
func (h *SiteHandler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	siteID, ok := PathParam(w, r, "id", "Site ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	if err := h.siteService.DeleteSite(r.Context(), siteID, userID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
