package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterOptions configures cross-cutting middleware.
type RouterOptions struct {
	// Token enables bearer auth on every route except health when non-empty.
	Token             string
	AllowedOrigins    []string
	RequestsPerMinute int
}

// NewRouter builds and returns the Chi router with all routes configured.
// The health endpoint is never authenticated. Rate limiting is per IP.
func NewRouter(handlers *Handlers, health http.Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	if opts.RequestsPerMinute > 0 {
		r.Use(httprate.LimitByIP(opts.RequestsPerMinute, time.Minute))
	}

	r.Method(http.MethodGet, "/api/v1/health", health)

	r.Group(func(r chi.Router) {
		if opts.Token != "" {
			r.Use(BearerAuth(opts.Token))
		}
		r.Use(LimitBody)
		r.Post("/api/v1/search", handlers.Search)
		r.Post("/api/v1/pricing/predict", handlers.PredictPrice)
		r.Post("/api/v1/forecast", handlers.Forecast)
		r.Get("/api/v1/listings", handlers.ListListings)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
