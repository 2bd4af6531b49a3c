package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/ranjit123-yst/ananya/internal/handler/chat"
	modeHandler "github.com/ranjit123-yst/ananya/internal/handler/mode"
	middlewarePkg "github.com/ranjit123-yst/ananya/internal/middleware"
	modeModel "github.com/ranjit123-yst/ananya/internal/model/mode"
	"github.com/ranjit123-yst/ananya/internal/service/orchestrator"
)

// NewRouter wires HTTP routes to the chat pipeline.
func NewRouter(modes modeModel.Store, orch *orchestrator.Orchestrator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		chatHandler.New(orch).RegisterRoutes(api)
		modeHandler.New(modes).RegisterRoutes(api)
	})

	return r
}
