package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/foldernotes/notes-server/internal/domain"
	domainerrors "github.com/foldernotes/notes-server/internal/errors"
)

// Mode selects how the gate treats a request without a credential.
type Mode int

const (
	// Required rejects requests without a credential.
	Required Mode = iota
	// Optional lets requests without a credential through anonymously.
	Optional
)

func (m Mode) String() string {
	if m == Optional {
		return "optional"
	}
	return "required"
}

// Gate resolves the credential of an inbound request to an identity.
type Gate struct {
	issuer Issuer
	logger *slog.Logger
}

// NewGate creates a gate backed by issuer.
func NewGate(issuer Issuer, logger *slog.Logger) *Gate {
	return &Gate{issuer: issuer, logger: logger}
}

// Issuer returns the issuer behind the gate.
func (g *Gate) Issuer() Issuer { return g.issuer }

// RequestCredential is what a request carried in its credential header or
// cookie. Found is set whenever the header or cookie was sent, even when it
// could not be parsed and Value is empty.
type RequestCredential struct {
	Value string
	Found bool
}

// Authenticate resolves cred according to mode. It returns either an
// identity (nil only for an anonymous Optional request) or an error, never both.
//
// A present but malformed or unknown credential fails in both modes; it is
// never treated as anonymous.
func (g *Gate) Authenticate(ctx context.Context, cred RequestCredential, mode Mode) (*domain.Identity, error) {
	if !cred.Found {
		if mode == Optional {
			return nil, nil
		}
		return nil, domainerrors.Unauthenticated("not authenticated")
	}
	if cred.Value == "" {
		g.logger.Debug("Malformed credential", "strategy", g.issuer.Strategy(), "mode", mode.String())
		return nil, domainerrors.InvalidCredential("invalid token")
	}

	identity, err := g.issuer.Resolve(ctx, cred.Value)
	if errors.Is(err, ErrCredentialRejected) {
		g.logger.Debug("Credential rejected", "strategy", g.issuer.Strategy(), "mode", mode.String(), "error", err)
		return nil, domainerrors.InvalidCredential("invalid token")
	}
	if err != nil {
		g.logger.Error("Credential lookup failed", "strategy", g.issuer.Strategy(), "error", err)
		return nil, domainerrors.ErrInternal.WithCause(err)
	}

	return &identity, nil
}

type identityKey struct{}

// WithIdentity returns ctx carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the identity attached by the gate, or nil for an
// anonymous request.
func IdentityFrom(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(identityKey{}).(*domain.Identity)
	return identity
}

// RequireIdentity returns the identity attached by the gate or an
// UNAUTHENTICATED error.
func RequireIdentity(ctx context.Context) (domain.Identity, error) {
	identity := IdentityFrom(ctx)
	if identity == nil {
		return domain.Identity{}, domainerrors.Unauthenticated("not authenticated")
	}
	return *identity, nil
}
