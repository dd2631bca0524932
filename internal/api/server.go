// Package api provides the HTTP API server and handlers for the notes server.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/foldernotes/notes-server/internal/auth"
	domainerrors "github.com/foldernotes/notes-server/internal/errors"
	"github.com/foldernotes/notes-server/internal/metrics"
	"github.com/foldernotes/notes-server/internal/ratelimit"
	"github.com/foldernotes/notes-server/internal/service"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Services groups the business logic services used by the API server.
type Services struct {
	Auth    *service.AuthService
	Folders *service.FolderService
	Notes   *service.NoteService
}

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecks are the components reported by /health. Sessions is nil when
// credentials are stateless tokens.
type HealthChecks struct {
	Database Pinger
	Sessions Pinger
}

// Options carries the HTTP-facing settings.
type Options struct {
	CORSOrigins  []string
	CookieName   string
	CookieSecure bool
	// TrustProxy rewrites the remote address from proxy headers.
	TrustProxy   bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    *Services
	gate        *auth.Gate
	authLimiter *ratelimit.KeyedRateLimiter
	health      HealthChecks
	opts        Options
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, gate *auth.Gate, authLimiter *ratelimit.KeyedRateLimiter, health HealthChecks, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		services:    services,
		gate:        gate,
		authLimiter: authLimiter,
		health:      health,
		opts:        opts,
		router:      chi.NewRouter(),
		logger:      logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Notes API", Version)
	humaConfig.Info.Description = "Folders and notes with per-note sharing."
	// Response bodies keep the exact shapes clients parse, without $schema links.
	humaConfig.CreateHooks = nil
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
		"cookie": {
			Type: "apiKey",
			In:   "cookie",
			Name: opts.CookieName,
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and documentation tooling.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(accessLog(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(instrument)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, domainerrors.NotFound("route not found"))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, domainerrors.NotFound("route not found"))
	})
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", metrics.Handler())

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerFolderRoutes()
	s.registerNoteRoutes()
}

// security lists the schemes a protected operation accepts under the
// active strategy.
func (s *Server) security() []map[string][]string {
	if s.gate.Issuer().Strategy() == auth.StrategySession {
		return []map[string][]string{{"cookie": {}}}
	}
	return []map[string][]string{{"bearer": {}}}
}
