package router

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/contact-intake/internal/contacts"
	"github.com/wolfman30/contact-intake/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/contact-intake/internal/http/middleware"
	"github.com/wolfman30/contact-intake/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ContactsHandler    *contacts.Handler
	HealthHandler      *handlers.HealthHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	Production         bool

	// AdminAuthSecret, when set, puts /api/contacts behind AdminJWT.
	AdminAuthSecret string
	// ContactLimiter throttles POST /api/contact. Nil disables throttling.
	ContactLimiter httpmiddleware.Limiter

	// StaticDir serves the website, /admin and /test pages when set.
	StaticDir string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.SecurityHeaders(cfg.Production))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.HealthHandler != nil {
			api.Get("/health", cfg.HealthHandler.Health)
			api.Get("/test", cfg.HealthHandler.Test)
		}
		if cfg.ContactsHandler == nil {
			return
		}

		api.Get("/contact", cfg.ContactsHandler.SubmitInfo)
		api.With(httpmiddleware.RateLimit(cfg.ContactLimiter, cfg.Logger)).
			Post("/contact", cfg.ContactsHandler.Submit)

		api.Route("/contacts", func(admin chi.Router) {
			if cfg.AdminAuthSecret != "" {
				admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			}
			admin.Get("/", cfg.ContactsHandler.List)
			admin.Get("/{id}", cfg.ContactsHandler.Get)
			admin.Put("/{id}/status", cfg.ContactsHandler.UpdateStatus)
		})
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.StaticDir != "" {
		mountStatic(r, cfg.StaticDir)
	}

	return r
}

func mountStatic(r chi.Router, dir string) {
	page := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			http.ServeFile(w, req, filepath.Join(dir, name))
		}
	}
	r.Get("/admin", page("admin.html"))
	r.Get("/test", page("test.html"))
	r.Handle("/*", http.FileServer(http.Dir(dir)))
}
