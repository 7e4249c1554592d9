package stream

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	councilHandler "github.com/zhouzirui/z-council/backend/internal/handler/council"
	councilService "github.com/zhouzirui/z-council/backend/internal/service/council"
	"github.com/zhouzirui/z-council/backend/pkg/utils"
)

// Handler streams council runs via Server-Sent Events
type Handler struct {
	sessions *councilService.Sessions
}

// New creates a new stream handler
func New(sessions *councilService.Sessions) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes registers the SSE endpoint
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamEnd closes every stream.
type StreamEnd struct {
	SessionID string `json:"sessionId"`
	Finished  bool   `json:"finished"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	question := r.URL.Query().Get("message")

	if h.sessions == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
		return
	}
	if question == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}
	if _, err := h.sessions.Transcript(r.Context(), sessionID); err != nil {
		utils.RespondError(w, councilHandler.StatusFor(err), err.Error())
		return
	}

	sse, err := utils.NewSSEWriter(w)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reported := false
	sink := func(ev councilService.Event) {
		if ev.Type == councilService.EventError {
			reported = true
		}
		sse.Event(string(ev.Type), ev)
	}

	if _, err := h.sessions.Ask(r.Context(), sessionID, question, sink); err != nil {
		log.Printf("[stream] session=%s council run failed: %v", sessionID, err)
		if !reported {
			sse.Event(string(councilService.EventError), councilService.Event{Type: councilService.EventError, Error: err.Error()})
		}
	} else {
		log.Printf("[stream] completed council run for session=%s", sessionID)
	}

	sse.Event("end", StreamEnd{SessionID: sessionID, Finished: true})
}
