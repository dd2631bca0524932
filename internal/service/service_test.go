package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/domain"
	"github.com/foldernotes/notes-server/internal/sessionstore"
	"github.com/foldernotes/notes-server/internal/store/sqlstore"
	"github.com/foldernotes/notes-server/internal/validation"
)

// fastParams keep password hashing cheap in tests.
var fastParams = auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type testEnv struct {
	store   *sqlstore.Store
	issuer  *auth.SessionIssuer
	auth    *AuthService
	folders *FolderService
	notes   *NoteService
}

// setupTest wires the services over a temporary SQLite database and an
// in-memory session store.
func setupTest(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	s, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver:          sqlstore.DriverSQLite,
		DSN:             filepath.Join(t.TempDir(), "test.db"),
		ConnectAttempts: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	sessions, err := sessionstore.OpenBadgerInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close() })

	issuer := auth.NewSessionIssuer(sessions, time.Hour)
	v := validation.New()

	return &testEnv{
		store:   s,
		issuer:  issuer,
		auth:    NewAuthService(s, auth.NewArgon2Hasher(fastParams), issuer, v, logger),
		folders: NewFolderService(s, v, logger),
		notes:   NewNoteService(s, v, logger),
	}
}

// registerUser registers username with password "pw1" and returns its identity.
func (e *testEnv) registerUser(t *testing.T, username string) domain.Identity {
	t.Helper()
	user, err := e.auth.Register(context.Background(), RegisterRequest{Name: username, Username: username, Password: "pw1"})
	require.NoError(t, err)
	return user.Identity()
}

func (e *testEnv) createFolder(t *testing.T, actor domain.Identity, name string) *domain.Folder {
	t.Helper()
	folder, err := e.folders.Create(context.Background(), actor, FolderRequest{Name: name})
	require.NoError(t, err)
	return folder
}

func (e *testEnv) createTextNote(t *testing.T, actor domain.Identity, folderID int64, heading, body string) *domain.Note {
	t.Helper()
	note, err := e.notes.Create(context.Background(), actor, CreateNoteRequest{
		Type: domain.NoteTypeText, Heading: heading, FolderID: folderID, Body: &body,
	})
	require.NoError(t, err)
	return note
}

func ptr[T any](v T) *T { return &v }
