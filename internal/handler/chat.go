package handler

import (
	"log/slog"
	"net/http"

	"siteforge/internal/httputil"
	chatSvc "siteforge/internal/service/chat"
)

// ChatHandler handles chat and undo HTTP requests
type ChatHandler struct {
	chatService    *chatSvc.Service
	restoreService *chatSvc.RestoreService
	logger         *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *chatSvc.Service, restoreService *chatSvc.RestoreService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		restoreService: restoreService,
		logger:         logger,
	}
}

// ProcessTurn runs one chat turn. The request blocks for the duration of the
// LLM call; clients should apply a generous timeout.
// POST /api/sites/{id}/chat
func (h *ChatHandler) ProcessTurn(w http.ResponseWriter, r *http.Request) {
	siteID, ok := PathParam(w, r, "id", "Site ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	var req chatSvc.TurnRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.SiteID = siteID
	req.UserID = userID

	result, err := h.chatService.ProcessTurn(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ListMessages returns the visible transcript for a site
// GET /api/sites/{id}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	siteID, ok := PathParam(w, r, "id", "Site ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	messages, err := h.chatService.ListMessages(r.Context(), siteID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messages)
}

// RestoreLastTurn reverts the most recent chat turn and its file mutations
// POST /api/sites/{id}/restore
func (h *ChatHandler) RestoreLastTurn(w http.ResponseWriter, r *http.Request) {
	siteID, ok := PathParam(w, r, "id", "Site ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	result, err := h.restoreService.RestoreLastTurn(r.Context(), siteID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
