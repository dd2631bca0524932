package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/config"
	"github.com/foldernotes/notes-server/internal/logger"
	"github.com/foldernotes/notes-server/internal/sessionstore"
	"github.com/foldernotes/notes-server/internal/store/sqlstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlstore.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the relational store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		ConnectAttempts: cfg.Database.ConnectAttempts,
		ConnectBackoff:  cfg.Database.ConnectBackoff,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Database.Driver)

	return &StoreHandle{Store: db}, nil
}

// SessionStoreHandle wraps the session store with shutdown capability.
type SessionStoreHandle struct {
	auth.SessionStore
}

// Shutdown implements do.Shutdownable.
func (h *SessionStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideSessionStore provides the configured session store backend.
func ProvideSessionStore(i do.Injector) (*SessionStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Sessions.Backend {
	case config.BackendBadger:
		path := cfg.SessionPath()
		store, err := sessionstore.OpenBadger(path, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Session store opened", "backend", cfg.Sessions.Backend, "path", path)
		return &SessionStoreHandle{SessionStore: store}, nil
	case config.BackendRedis:
		store, err := sessionstore.OpenRedis(context.Background(), cfg.Sessions.RedisURL, log.Logger)
		if err != nil {
			return nil, err
		}
		return &SessionStoreHandle{SessionStore: store}, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Sessions.Backend)
	}
}
