package api

import (
	"net/http"

	"github.com/Rrens/clinic-assistant/internal/api/handler"
	customMiddleware "github.com/Rrens/clinic-assistant/internal/api/middleware"
	"github.com/Rrens/clinic-assistant/internal/config"
	"github.com/Rrens/clinic-assistant/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies are the wired components the router serves
type Dependencies struct {
	Chat        *handler.ChatHandler
	Health      *handler.HealthHandler
	RateLimiter customMiddleware.Limiter
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", deps.Health.Check)

		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.RateLimiter, deps.Chat.RecordRejected).Limit)
			}
			r.Post("/chat", deps.Chat.Chat)
		})
	})

	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, metrics.Handler())
	}

	return r
}
