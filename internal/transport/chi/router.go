package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kailas-cloud/carequery/internal/metrics"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	APIKeys        []string
	AllowedOrigins []string
	RateLimiter    *RateLimiter
	TrustProxy     bool
}

// NewRouter mounts the API routes behind the standard middleware stack.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	if opts.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(wideEventMiddleware(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware())
	}
	r.Use(BearerAuthMiddleware(opts.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.Health)
	r.Get("/metrics", s.Metrics)
	r.Route("/api", func(r chi.Router) {
		r.Post("/query", s.Query)
		r.Get("/example-queries", s.ExampleQueries)
		r.Get("/health", s.Health)
		r.Get("/stats", s.Stats)
		r.Get("/domains", s.Domains)
		r.Get("/sources", s.Sources)
		r.Get("/usage", s.Usage)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}
