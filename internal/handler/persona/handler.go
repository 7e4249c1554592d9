package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-council/backend/internal/model/persona"
	"github.com/zhouzirui/z-council/backend/pkg/utils"
)

// Handler persona与coordinator定义的HTTP处理器
type Handler struct {
	personas persona.Store
}

// New 创建persona处理器
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/personas/{id}", h.handleGetPersona)
	r.Get("/coordinators", h.handleListCoordinators)
	r.Get("/coordinators/{id}", h.handleGetCoordinator)
}

// handleListPersonas 列出所有persona
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}

func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	p, ok := h.personas.FindByID(chi.URLParam(r, "id"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

// handleListCoordinators 列出所有coordinator草稿
func (h *Handler) handleListCoordinators(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.Coordinators())
}

func (h *Handler) handleGetCoordinator(w http.ResponseWriter, r *http.Request) {
	c, ok := h.personas.FindCoordinator(chi.URLParam(r, "id"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "coordinator not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, c)
}
