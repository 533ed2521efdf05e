package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"quickshop-support/internal/handlers"
	"quickshop-support/internal/metrics"
	"quickshop-support/internal/middleware"
	"quickshop-support/internal/websocket"
)

// New wires every route. wsHub is nil when Redis is not configured, in which
// case the live update endpoint is not mounted.
func New(
	chatHandler *handlers.ChatHandler,
	healthHandler *handlers.HealthHandler,
	wsHub *websocket.Hub,
	gatherer prometheus.Gatherer,
	m *metrics.Metrics,
	log zerolog.Logger,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(log, m))
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.CORS(frontendURL))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Health check
	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", chatHandler.SendMessage)
			r.Get("/history/{sessionId}", chatHandler.GetHistory)
			r.Get("/health", healthHandler.Health)

			// ──── WebSocket ────
			if wsHub != nil {
				r.Get("/ws/{sessionId}", wsHub.HandleWebSocket)
			}
		})
	})

	return r
}
