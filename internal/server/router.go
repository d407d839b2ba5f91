package server

import (
	"net/http"

	"github.com/fieldstack/mechanic/internal/api"
	"github.com/fieldstack/mechanic/internal/api/handlers"
	"github.com/fieldstack/mechanic/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	TroubleshootHandler *handlers.TroubleshootHandler
	AtomHandler         *handlers.AtomHandler
	GapHandler          *handlers.GapHandler
	StatsHandler        *handlers.StatsHandler
	ManualHandler       *handlers.ManualHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/troubleshoot", cfg.TroubleshootHandler.Troubleshoot)

	r.Route("/atoms", func(r chi.Router) {
		r.Post("/", cfg.AtomHandler.Create)
		r.Get("/", cfg.AtomHandler.List)
		r.Get("/{id}", cfg.AtomHandler.Get)
		r.Post("/{id}/verify", cfg.AtomHandler.Verify)
		r.Post("/{id}/supersede", cfg.AtomHandler.Supersede)
	})

	r.Route("/gaps", func(r chi.Router) {
		r.Get("/pending", cfg.GapHandler.Pending)
		r.Get("/{id}", cfg.GapHandler.Get)
		r.Post("/{id}/claim", cfg.GapHandler.Claim)
		r.Post("/{id}/dismiss", cfg.GapHandler.Dismiss)
		r.Post("/{id}/resolve", cfg.GapHandler.Resolve)
	})

	r.Get("/stats", cfg.StatsHandler.Get)

	if cfg.ManualHandler != nil {
		r.Route("/manuals", func(r chi.Router) {
			r.Post("/", cfg.ManualHandler.Register)
			r.Get("/", cfg.ManualHandler.List)
			r.Post("/{id}/confirm", cfg.ManualHandler.Confirm)
			r.Get("/{id}/download", cfg.ManualHandler.Download)
		})
	}

	return r
}
