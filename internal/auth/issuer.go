package auth

import (
	"context"
	"errors"
	"time"

	"github.com/foldernotes/notes-server/internal/domain"
)

// Strategy names how a credential is carried and where its state lives.
type Strategy string

// Strategies.
const (
	// StrategySession keeps the identity server-side behind an opaque id
	// delivered as a cookie. Logout revokes it immediately.
	StrategySession Strategy = "session"
	// StrategyToken signs the identity into a bearer token. Nothing is kept
	// server-side, so a token stays valid until it expires.
	StrategyToken Strategy = "token"
)

// ErrCredentialRejected marks a credential that is malformed, expired,
// tampered with or unknown. Any other resolve error is an infrastructure failure.
var ErrCredentialRejected = errors.New("credential rejected")

// Credential is an issued credential and its expiry.
type Credential struct {
	Value     string
	ExpiresAt time.Time
}

// Issuer turns a verified identity into a credential and back.
type Issuer interface {
	Strategy() Strategy
	// Issue binds identity to a new credential.
	Issue(ctx context.Context, identity domain.Identity) (Credential, error)
	// Resolve returns the identity bound to credential. Rejections wrap
	// ErrCredentialRejected.
	Resolve(ctx context.Context, credential string) (domain.Identity, error)
	// Revoke invalidates credential where the strategy allows it.
	// Revoking an unknown credential is not an error.
	Revoke(ctx context.Context, credential string) error
}
