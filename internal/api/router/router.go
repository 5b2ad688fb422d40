package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/skolarrs/leadintake/internal/http/middleware"
	"github.com/skolarrs/leadintake/internal/leads"
	"github.com/skolarrs/leadintake/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger       *logging.Logger
	LeadsHandler *leads.Handler

	// RateLimiter throttles POST /api/lead per client IP when set.
	RateLimiter   httpmiddleware.Limiter
	OnRateLimited func()

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// AdminToken mounts GET /admin/leads when non-empty.
	AdminToken string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.LeadsHandler != nil {
		limited := httpmiddleware.RateLimit(httpmiddleware.RateLimitOptions{
			Limiter: cfg.RateLimiter,
			OnLimited: func(w http.ResponseWriter, _ *http.Request) {
				leads.WriteRateLimited(w)
			},
			OnReject: cfg.OnRateLimited,
			Logger:   cfg.Logger,
		})
		r.With(limited).Post("/api/lead", cfg.LeadsHandler.CreateLead)

		if cfg.AdminToken != "" {
			r.Route("/admin", func(admin chi.Router) {
				admin.Use(requireAdminToken(cfg.AdminToken))
				admin.Get("/leads", cfg.LeadsHandler.ListLeads)
			})
		}
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
