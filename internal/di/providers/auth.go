package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/config"
	"github.com/foldernotes/notes-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.App.DataPath)
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded",
		"token_duration", cfg.Auth.TokenDuration,
		"session_duration", cfg.Auth.SessionDuration,
	)

	return AuthKey(key), nil
}

// ProvidePasswordHasher provides the argon2id hasher.
func ProvidePasswordHasher(i do.Injector) (*auth.Argon2Hasher, error) {
	return auth.NewArgon2Hasher(auth.DefaultArgon2Params), nil
}

// ProvideIssuer provides the credential issuer for the configured strategy.
// The session store is only opened for the session strategy.
func ProvideIssuer(i do.Injector) (auth.Issuer, error) {
	cfg := do.MustInvoke[*config.Config](i)

	switch cfg.Auth.Strategy {
	case config.StrategySession:
		sessions := do.MustInvoke[*SessionStoreHandle](i)
		return auth.NewSessionIssuer(sessions, cfg.Auth.SessionDuration), nil
	case config.StrategyToken:
		key := do.MustInvoke[AuthKey](i)
		return auth.NewTokenIssuer([]byte(key), cfg.Auth.TokenDuration)
	default:
		return nil, fmt.Errorf("unknown auth strategy %q", cfg.Auth.Strategy)
	}
}

// ProvideGate provides the authentication gate.
func ProvideGate(i do.Injector) (*auth.Gate, error) {
	issuer := do.MustInvoke[auth.Issuer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return auth.NewGate(issuer, log.Logger), nil
}
