package council

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-council/backend/internal/model/persona"
	chatService "github.com/zhouzirui/z-council/backend/internal/service/chat"
	councilService "github.com/zhouzirui/z-council/backend/internal/service/council"
	"github.com/zhouzirui/z-council/backend/pkg/utils"
)

// Handler runs a session's coordinator over HTTP.
type Handler struct {
	sessions *councilService.Sessions
}

// New creates the council handler. A nil sessions runner answers 503.
func New(sessions *councilService.Sessions) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes registers the council routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/council/{sessionID}", h.handleAsk)
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "llm provider not configured")
		return
	}

	var payload struct {
		Question string `json:"question"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	verdict, err := h.sessions.Ask(r.Context(), sessionID, payload.Question, nil)
	if err != nil {
		log.Printf("[council] session=%s ask failed: %v", sessionID, err)
		if verdict != nil {
			utils.RespondJSON(w, StatusFor(err), map[string]any{"error": err.Error(), "verdict": verdict})
			return
		}
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, verdict)
}

// StatusFor maps council and session errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, councilService.ErrEmptyQuestion),
		errors.Is(err, chatService.ErrCoordinatorRequired):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrSessionNotFound),
		errors.Is(err, councilService.ErrUnknownCoordinator):
		return http.StatusNotFound
	case errors.Is(err, councilService.ErrAgentUnavailable),
		errors.Is(err, persona.ErrNoCollaborators):
		return http.StatusServiceUnavailable
	case errors.Is(err, councilService.ErrIterationLimit):
		// 协调者的迭代预算不足以走完整个流程
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
