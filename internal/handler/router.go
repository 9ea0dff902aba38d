package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/hotel-ops-console/internal/middleware"
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/pkg/logger"
)

// RouterConfig carries what the HTTP surface needs.
type RouterConfig struct {
	Workspaces        Workspaces
	Events            EventBus
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	MaxImageBytes     int64
	Logger            *logger.Logger
}

// NewRouter builds the operator API.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	health := NewHealthHandler(cfg.Events)
	chat := NewSessionHandler(cfg.Workspaces, model.ChannelChat, log)
	calls := NewSessionHandler(cfg.Workspaces, model.ChannelCallCenter, log)
	images := NewVisionHandler(cfg.Workspaces, cfg.MaxImageBytes, log)
	customers := NewCustomerHandler(cfg.Workspaces, log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Health endpoints (no auth required)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		if cfg.RateLimitRequests > 0 && cfg.RateLimitWindow > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		sessionRoutes := func(h *SessionHandler) func(chi.Router) {
			return func(r chi.Router) {
				r.Get("/", h.Get)
				r.Post("/start", h.Start)
				r.Post("/messages", h.Message)
				r.Post("/end", h.End)
			}
		}
		r.Route("/chat", sessionRoutes(chat))
		r.Route("/calls", sessionRoutes(calls))

		r.Route("/vision", func(r chi.Router) {
			r.Get("/", images.List)
			r.Post("/analyze", images.Analyze)
			r.Get("/images/{id}", images.Image)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", customers.List)
			r.Get("/{id}", customers.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireScope(middleware.ScopeCustomersWrite))
				r.Post("/", customers.Create)
				r.Patch("/{id}", customers.Update)
			})
		})
	})

	return r
}
