package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foldernotes/notes-server/internal/domain"
	"github.com/foldernotes/notes-server/internal/id"
)

// ErrSessionNotFound is returned by a SessionStore for missing or expired ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps session records with a fixed expiry.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, identity domain.Identity, ttl time.Duration) error
	// Load returns ErrSessionNotFound for unknown or expired sessions.
	Load(ctx context.Context, sessionID string) (domain.Identity, error)
	// Delete removes a session. Deleting a missing session succeeds.
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
	Close() error
}

// SessionIssuer issues opaque session ids backed by a SessionStore.
type SessionIssuer struct {
	store    SessionStore
	lifetime time.Duration
	now      func() time.Time
}

// NewSessionIssuer creates a session issuer.
func NewSessionIssuer(store SessionStore, lifetime time.Duration) *SessionIssuer {
	return &SessionIssuer{store: store, lifetime: lifetime, now: time.Now}
}

// Strategy implements Issuer.
func (s *SessionIssuer) Strategy() Strategy { return StrategySession }

// Issue implements Issuer.
func (s *SessionIssuer) Issue(ctx context.Context, identity domain.Identity) (Credential, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return Credential{}, err
	}

	if err := s.store.Save(ctx, sessionID, identity, s.lifetime); err != nil {
		return Credential{}, fmt.Errorf("save session: %w", err)
	}

	return Credential{Value: sessionID, ExpiresAt: s.now().Add(s.lifetime)}, nil
}

// Resolve implements Issuer.
func (s *SessionIssuer) Resolve(ctx context.Context, credential string) (domain.Identity, error) {
	if !strings.HasPrefix(credential, id.PrefixSession+"_") {
		return domain.Identity{}, fmt.Errorf("%w: not a session id", ErrCredentialRejected)
	}

	identity, err := s.store.Load(ctx, credential)
	if errors.Is(err, ErrSessionNotFound) {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrCredentialRejected, err)
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("load session: %w", err)
	}

	return identity, nil
}

// Revoke implements Issuer by deleting the session record.
func (s *SessionIssuer) Revoke(ctx context.Context, credential string) error {
	if credential == "" {
		return nil
	}
	if err := s.store.Delete(ctx, credential); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
