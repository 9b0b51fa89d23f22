package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	localMiddleware "mafiabot/internal/middleware"
)

// RouterOptions configures the middleware stack
type RouterOptions struct {
	RequestTimeout time.Duration
	MaxRequestSize int64
	RateLimit      float64
	RateLimitBurst int
}

// NewRouter wires all routes and middleware
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Chi's built-in middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	// Our custom middleware
	if opts.MaxRequestSize > 0 {
		r.Use(localMiddleware.RequestSizeLimiter(opts.MaxRequestSize))
	}
	r.Use(localMiddleware.SecurityHeaders())

	// Health check endpoints are not rate limited
	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	r.Group(func(r chi.Router) {
		if opts.RateLimit > 0 {
			rateLimiter := localMiddleware.NewRateLimiter(opts.RateLimit, opts.RateLimitBurst)
			r.Use(rateLimiter.Middleware())
		}

		r.Get("/api/session", h.Session)
		r.Post("/api/commands/{command}", h.Command)
		r.Get("/join/qr.png", h.JoinQR)
	})

	return r
}
