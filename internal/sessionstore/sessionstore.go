// Package sessionstore keeps server-side session records for the session
// credential strategy. Badger serves a single instance from the data
// directory; Redis lets several instances share sessions.
package sessionstore

import (
	"encoding/json"
	"fmt"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/domain"
)

// keyPrefix namespaces session keys in both backends.
const keyPrefix = "session:"

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

// record is the stored form of a session.
type record struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func encode(identity domain.Identity) ([]byte, error) {
	data, err := json.Marshal(record{UserID: identity.UserID, Username: identity.Username, Name: identity.Name})
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

// decode reports an unreadable record as a missing session so the
// credential is rejected rather than failing the request.
func decode(data []byte) (domain.Identity, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: unmarshal session: %v", auth.ErrSessionNotFound, err)
	}
	if r.UserID <= 0 {
		return domain.Identity{}, fmt.Errorf("%w: session record has no user", auth.ErrSessionNotFound)
	}
	return domain.Identity{UserID: r.UserID, Username: r.Username, Name: r.Name}, nil
}
