// Package di provides dependency injection configuration for the notes server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/config"
	"github.com/foldernotes/notes-server/internal/di/providers"
	"github.com/foldernotes/notes-server/internal/logger"
	"github.com/foldernotes/notes-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSessionStore)

	// Auth layer
	do.Provide(injector, providers.ProvidePasswordHasher)
	do.Provide(injector, providers.ProvideIssuer)
	do.Provide(injector, providers.ProvideGate)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideFolderService)
	do.Provide(injector, providers.ProvideNoteService)

	// Server
	do.Provide(injector, providers.ProvideAuthRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services in dependency order. The HTTP server
// starts listening as the last step.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[providers.AuthKey](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[auth.Issuer](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*auth.Gate](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.FolderService](injector)
	_ = do.MustInvoke[*service.NoteService](injector)

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
