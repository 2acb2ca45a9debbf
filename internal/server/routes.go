package server

import (
	"github.com/Lutefd/log-pipeline/internal/handler"
	api_middleware "github.com/Lutefd/log-pipeline/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) registerRoutes(deps Dependencies) {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", handler.NewReadinessHandler(deps.Ready))
	router.Handle("/metrics", deps.Metrics.Handler())

	statsHandler := handler.NewStatsHandler(deps.Snapshot, deps.Alerts, deps.Cache)
	router.Route("/stats", func(r chi.Router) {
		r.Use(api_middleware.RateLimitMiddleware)
		r.Get("/", statsHandler.GetStats)
		r.Get("/groups/{groupID}", statsHandler.GetGroupStats)
	})
	router.With(api_middleware.RateLimitMiddleware).Get("/alerts", statsHandler.ListAlerts)
	s.router = router
}
