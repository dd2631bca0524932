package sessionstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/domain"
	"github.com/foldernotes/notes-server/internal/id"
)

var alice = domain.Identity{UserID: 7, Username: "alice", Name: "Alice"}

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, store auth.SessionStore) {
	ctx := context.Background()

	sessionID, err := id.Generate(id.PrefixSession)
	require.NoError(t, err)

	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, sessionID, alice, time.Hour))

	got, err := store.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	require.NoError(t, store.Delete(ctx, sessionID))
	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)

	assert.NoError(t, store.Delete(ctx, sessionID), "deleting a missing session succeeds")
	assert.NoError(t, store.Ping(ctx))
}

func TestBadger_InMemory(t *testing.T) {
	store, err := OpenBadgerInMemory(discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)
}

func TestBadger_Expiry(t *testing.T) {
	store, err := OpenBadgerInMemory(discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "sess_short", alice, time.Second))

	// Badger TTLs have one-second resolution.
	require.Eventually(t, func() bool {
		_, err := store.Load(ctx, "sess_short")
		return err == auth.ErrSessionNotFound
	}, 5*time.Second, 100*time.Millisecond)
}

func TestBadger_CorruptRecordIsNotFound(t *testing.T) {
	store, err := OpenBadgerInMemory(discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for sessionID, raw := range map[string]string{
		"sess_garbled": "{not json",
		"sess_nouser":  `{"username":"alice"}`,
	} {
		require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(sessionKey(sessionID)), []byte(raw))
		}))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, auth.ErrSessionNotFound, sessionID)
	}

	issuer := auth.NewSessionIssuer(store, time.Hour)
	_, err = issuer.Resolve(ctx, "sess_garbled")
	assert.ErrorIs(t, err, auth.ErrCredentialRejected)
}

func TestBadger_SurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	ctx := context.Background()

	store, err := OpenBadger(dir, discard())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "sess_keep", alice, time.Hour))
	require.NoError(t, store.Close())
	assert.Error(t, store.Ping(ctx))
	assert.NoError(t, store.Close(), "closing twice is fine")

	reopened, err := OpenBadger(dir, discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Load(ctx, "sess_keep")
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestRedis(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	store, err := OpenRedis(context.Background(), redisURL, discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)
}

func TestOpenRedis_BadURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "not-a-url://", discard())
	assert.Error(t, err)
}
