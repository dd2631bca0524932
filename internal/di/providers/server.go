package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/foldernotes/notes-server/internal/api"
	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/config"
	"github.com/foldernotes/notes-server/internal/logger"
	"github.com/foldernotes/notes-server/internal/ratelimit"
	"github.com/foldernotes/notes-server/internal/service"
)

// AuthRateLimiterHandle wraps the /auth rate limiter with Shutdownable.
type AuthRateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *AuthRateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideAuthRateLimiter provides the per-IP limiter for the auth endpoints.
func ProvideAuthRateLimiter(i do.Injector) (*AuthRateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	limiter := ratelimit.New(ratelimit.PerMinute(cfg.RateLimit.AuthPerMinute), cfg.RateLimit.AuthBurst, 10*time.Minute)
	return &AuthRateLimiterHandle{KeyedRateLimiter: limiter}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	gate := do.MustInvoke[*auth.Gate](i)
	limiter := do.MustInvoke[*AuthRateLimiterHandle](i)

	services := &api.Services{
		Auth:    do.MustInvoke[*service.AuthService](i),
		Folders: do.MustInvoke[*service.FolderService](i),
		Notes:   do.MustInvoke[*service.NoteService](i),
	}

	health := api.HealthChecks{Database: storeHandle.Store}
	if cfg.Auth.Strategy == config.StrategySession {
		health.Sessions = do.MustInvoke[*SessionStoreHandle](i)
	}

	handler := api.NewServer(services, gate, limiter.KeyedRateLimiter, health, api.Options{
		CORSOrigins:  cfg.Server.CORSOrigins,
		CookieName:   cfg.Auth.CookieName,
		CookieSecure: cfg.Auth.CookieSecure,
		TrustProxy:   cfg.Server.TrustProxy,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "docs", "/docs")

	return &HTTPServerHandle{Server: srv}, nil
}
