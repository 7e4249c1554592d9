package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/z-council/backend/internal/handler/chat"
	"github.com/zhouzirui/z-council/backend/internal/handler/council"
	"github.com/zhouzirui/z-council/backend/internal/handler/persona"
	"github.com/zhouzirui/z-council/backend/internal/handler/stream"
	"github.com/zhouzirui/z-council/backend/internal/handler/ws"
	"github.com/zhouzirui/z-council/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/z-council/backend/internal/middleware"
	personaModel "github.com/zhouzirui/z-council/backend/internal/model/persona"
	chatService "github.com/zhouzirui/z-council/backend/internal/service/chat"
	councilService "github.com/zhouzirui/z-council/backend/internal/service/council"
	"github.com/zhouzirui/z-council/backend/pkg/utils"
)

// Dependencies are the services the HTTP layer exposes. Sessions and Metrics may be nil.
type Dependencies struct {
	Personas           personaModel.Store
	Chat               *chatService.Service
	Sessions           *councilService.Sessions
	Metrics            *metrics.Council
	DefaultCoordinator string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"llm":    deps.Sessions != nil,
		})
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		persona.New(deps.Personas).RegisterRoutes(api)
		chat.New(deps.Chat, deps.Personas, deps.DefaultCoordinator).RegisterRoutes(api)
		council.New(deps.Sessions).RegisterRoutes(api)
		stream.New(deps.Sessions).RegisterRoutes(api)
		ws.New(deps.Sessions).RegisterRoutes(api)
	})

	return r
}
