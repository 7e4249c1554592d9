package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-council/backend/internal/model/chat"
	"github.com/zhouzirui/z-council/backend/internal/model/persona"
	chatService "github.com/zhouzirui/z-council/backend/internal/service/chat"
	"github.com/zhouzirui/z-council/backend/pkg/utils"
)

// Handler 会话服务的HTTP处理器
type Handler struct {
	chatSvc            *chatService.Service
	personaStore       persona.Store
	defaultCoordinator string
}

// New 创建会话处理器。defaultCoordinator在请求未指定coordinatorId时使用，可为空。
func New(chatSvc *chatService.Service, personaStore persona.Store, defaultCoordinator string) *Handler {
	return &Handler{
		chatSvc:            chatSvc,
		personaStore:       personaStore,
		defaultCoordinator: defaultCoordinator,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Get("/session/{sessionID}/messages", h.handleListMessages)
	r.Post("/messages", h.handleSaveMessage)
}

// handleCreateSession 创建绑定到coordinator的会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CoordinatorID string `json:"coordinatorId"`
	}

	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if payload.CoordinatorID == "" {
		payload.CoordinatorID = h.defaultCoordinator
	}
	if payload.CoordinatorID == "" {
		utils.RespondError(w, http.StatusBadRequest, "coordinatorId is required")
		return
	}

	if _, ok := h.personaStore.FindCoordinator(payload.CoordinatorID); !ok {
		utils.RespondError(w, http.StatusBadRequest, "coordinator not found")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.CoordinatorID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleListMessages 返回会话记录
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleSaveMessage 保存用户消息
func (h *Handler) handleSaveMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Sender    string `json:"sender"`
		Content   string `json:"content"`
	}

	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Content == "" {
		utils.RespondError(w, http.StatusBadRequest, "content is required")
		return
	}
	if payload.Sender == "" {
		payload.Sender = "user"
	}

	saved, err := h.chatSvc.SaveMessage(r.Context(), chat.Message{
		SessionID: payload.SessionID,
		Sender:    payload.Sender,
		Content:   payload.Content,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, saved)
}
