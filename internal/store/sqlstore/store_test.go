package sqlstore

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foldernotes/notes-server/internal/domain"
	"github.com/foldernotes/notes-server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Driver:          DriverSQLite,
		DSN:             filepath.Join(t.TempDir(), "test.db"),
		ConnectAttempts: 1,
	}, testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixture creates a user with one folder.
func fixture(t *testing.T, s *Store, username string) (*domain.User, *domain.Folder) {
	t.Helper()
	ctx := context.Background()

	user := &domain.User{Username: username, Name: username, PasswordHash: "hash"}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	folder := &domain.Folder{Name: "Recipes", OwnerID: user.ID}
	if err := s.CreateFolder(ctx, folder); err != nil {
		t.Fatalf("create folder: %v", err)
	}
	return user, folder
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	for _, table := range []string{"users", "folders", "notes", "note_content_text", "note_content_list"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "test.db"), ConnectAttempts: 1}

	s, err := Open(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	s2, err := Open(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	s2.Close()
}

func TestOpen_GivesUpAfterAttempts(t *testing.T) {
	cfg := Config{
		Driver:          DriverSQLite,
		DSN:             filepath.Join(t.TempDir(), "missing-dir", "nested", "test.db"),
		ConnectAttempts: 3,
		ConnectBackoff:  time.Millisecond,
	}

	_, err := Open(context.Background(), cfg, testLogger())
	if err == nil {
		t.Fatal("expected error opening database in a missing directory")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql", ConnectAttempts: 1}, testLogger())
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	got := pg.rebind("UPDATE notes SET heading = ? WHERE id = ? AND user_id = ?")
	want := "UPDATE notes SET heading = $1 WHERE id = $2 AND user_id = $3"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	lite := &Store{driver: DriverSQLite}
	if q := "SELECT ?"; lite.rebind(q) != q {
		t.Errorf("sqlite query must not be rewritten")
	}
}

func TestSQLiteDSN(t *testing.T) {
	got := sqliteDSN("/data/notes.db")
	want := "file:/data/notes.db?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if got != want {
		t.Errorf("sqliteDSN = %q, want %q", got, want)
	}
	if got := sqliteDSN("file::memory:?cache=shared"); got != "file::memory:?cache=shared" {
		t.Errorf("explicit DSN rewritten: %q", got)
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &domain.User{Username: "alice", Name: "Alice", PasswordHash: "h1"}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected ID to be set")
	}

	dup := &domain.User{Username: "alice", Name: "Other", PasswordHash: "h2"}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ID != user.ID || got.Name != "Alice" || got.PasswordHash != "h1" {
		t.Errorf("unexpected user: %+v", got)
	}

	if err := s.UpdatePassword(ctx, user.ID, "h3"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	got, _ = s.GetUserByUsername(ctx, "alice")
	if got.PasswordHash != "h3" {
		t.Errorf("expected new hash, got %q", got.PasswordHash)
	}

	if _, err := s.GetUserByUsername(ctx, "bob"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdatePassword(ctx, 999, "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFolders_OwnerScopedWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, folder := fixture(t, s, "alice")
	bob, _ := fixture(t, s, "bob")

	if err := s.UpdateFolder(ctx, folder.ID, bob.ID, "Stolen"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign rename, got %v", err)
	}
	if err := s.DeleteFolder(ctx, folder.ID, bob.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}

	got, err := s.GetFolder(ctx, folder.ID)
	if err != nil {
		t.Fatalf("get folder: %v", err)
	}
	if got.Name != "Recipes" || got.OwnerID != alice.ID {
		t.Errorf("folder changed by non-owner: %+v", got)
	}

	if err := s.UpdateFolder(ctx, folder.ID, alice.ID, "Baking"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, _ = s.GetFolder(ctx, folder.ID)
	if got.Name != "Baking" {
		t.Errorf("expected Baking, got %q", got.Name)
	}

	folders, err := s.ListFolders(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list folders: %v", err)
	}
	if len(folders) != 1 || folders[0].ID != folder.ID {
		t.Errorf("unexpected folders: %+v", folders)
	}

	if err := s.DeleteFolder(ctx, folder.ID, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetFolder(ctx, folder.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	empty, err := s.ListFolders(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list folders: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestNotes_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, folder := fixture(t, s, "alice")

	text := &domain.Note{
		Heading: "Cake", Type: domain.NoteTypeText, FolderID: folder.ID, OwnerID: user.ID,
		Content: domain.TextContent{Body: "mix flour"},
	}
	if err := s.CreateNote(ctx, text); err != nil {
		t.Fatalf("create text note: %v", err)
	}

	list := &domain.Note{
		Heading: "Shopping", Type: domain.NoteTypeList, FolderID: folder.ID, OwnerID: user.ID, IsShared: true,
		Content: domain.ListContent{Items: []string{"eggs", "milk"}},
	}
	if err := s.CreateNote(ctx, list); err != nil {
		t.Fatalf("create list note: %v", err)
	}

	got, err := s.GetNote(ctx, text.ID)
	if err != nil {
		t.Fatalf("get text note: %v", err)
	}
	if body := got.Content.(domain.TextContent).Body; body != "mix flour" {
		t.Errorf("body = %q", body)
	}
	if got.IsShared {
		t.Error("expected private note")
	}

	got, err = s.GetNote(ctx, list.ID)
	if err != nil {
		t.Fatalf("get list note: %v", err)
	}
	items := got.Content.(domain.ListContent).Items
	if len(items) != 2 || items[0] != "eggs" || items[1] != "milk" {
		t.Errorf("items = %v", items)
	}
	if !got.IsShared {
		t.Error("expected shared note")
	}

	if _, err := s.GetNote(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNotes_CreateDefaultsContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, folder := fixture(t, s, "alice")

	note := &domain.Note{Heading: "Empty", Type: domain.NoteTypeList, FolderID: folder.ID, OwnerID: user.ID}
	if err := s.CreateNote(ctx, note); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	items := got.Content.(domain.ListContent).Items
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty item list, got %#v", items)
	}
}

func TestNotes_CreateRollsBackOnContentFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, folder := fixture(t, s, "alice")

	note := &domain.Note{
		Heading: "Broken", Type: domain.NoteTypeText, FolderID: folder.ID, OwnerID: user.ID,
		Content: domain.ListContent{Items: []string{"x"}},
	}
	if err := s.CreateNote(ctx, note); !errors.Is(err, store.ErrContentMismatch) {
		t.Fatalf("expected ErrContentMismatch, got %v", err)
	}

	notes, err := s.ListNotes(ctx, store.NoteFilter{OwnerID: user.ID}, domain.NoteListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("header row persisted after rollback: %+v", notes)
	}

	var orphans int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&orphans); err != nil {
		t.Fatalf("count: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected no note rows, got %d", orphans)
	}
}

func TestNotes_ListOrderingAndPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, folder := fixture(t, s, "alice")

	other := &domain.Folder{Name: "Other", OwnerID: user.ID}
	if err := s.CreateFolder(ctx, other); err != nil {
		t.Fatalf("create folder: %v", err)
	}

	for _, n := range []struct {
		heading string
		shared  bool
		folder  int64
	}{
		{"b", false, folder.ID},
		{"a", true, folder.ID},
		{"c", true, folder.ID},
		{"z", false, other.ID},
	} {
		note := &domain.Note{Heading: n.heading, IsShared: n.shared, Type: domain.NoteTypeText, FolderID: n.folder, OwnerID: user.ID}
		if err := s.CreateNote(ctx, note); err != nil {
			t.Fatalf("create %s: %v", n.heading, err)
		}
	}

	headings := func(notes []*domain.Note) string {
		var out string
		for _, n := range notes {
			out += n.Heading
		}
		return out
	}

	filter := store.NoteFilter{OwnerID: user.ID, FolderID: &folder.ID}
	tests := []struct {
		name string
		opts domain.NoteListOptions
		want string
	}{
		{"insertion order", domain.NoteListOptions{}, "bac"},
		{"heading asc", domain.NoteListOptions{Heading: domain.SortAsc}, "abc"},
		{"heading desc", domain.NoteListOptions{Heading: domain.SortDesc}, "cba"},
		{"shared desc then heading", domain.NoteListOptions{Shared: domain.SortDesc, Heading: domain.SortAsc}, "acb"},
		{"lowercase direction", domain.NoteListOptions{Heading: "desc"}, "cba"},
		{"paged", domain.NoteListOptions{Heading: domain.SortAsc, Offset: 1, Limit: 1}, "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes, err := s.ListNotes(ctx, filter, tt.opts)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if got := headings(notes); got != tt.want {
				t.Errorf("order = %q, want %q", got, tt.want)
			}
			for _, n := range notes {
				if n.Content != nil {
					t.Errorf("listing must not load content")
				}
			}
		})
	}

	all, err := s.ListNotes(ctx, store.NoteFilter{OwnerID: user.ID}, domain.NoteListOptions{Heading: domain.SortAsc})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if got := headings(all); got != "abcz" {
		t.Errorf("all notes = %q", got)
	}

	if _, err := s.ListNotes(ctx, filter, domain.NoteListOptions{Heading: "sideways"}); err == nil {
		t.Error("expected invalid sort direction to fail")
	}
}

func TestNotes_UpdateScopedAndTyped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, folder := fixture(t, s, "alice")
	bob, _ := fixture(t, s, "bob")

	note := &domain.Note{
		Heading: "Cake", Type: domain.NoteTypeText, FolderID: folder.ID, OwnerID: alice.ID,
		Content: domain.TextContent{Body: "mix flour"},
	}
	if err := s.CreateNote(ctx, note); err != nil {
		t.Fatalf("create: %v", err)
	}

	stolen := *note
	stolen.OwnerID = bob.ID
	stolen.Heading = "Mine"
	if err := s.UpdateNote(ctx, &stolen); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
	}

	mismatch := *note
	mismatch.Heading = "Changed"
	mismatch.Content = domain.ListContent{Items: []string{"x"}}
	if err := s.UpdateNote(ctx, &mismatch); !errors.Is(err, store.ErrContentMismatch) {
		t.Fatalf("expected ErrContentMismatch, got %v", err)
	}

	got, _ := s.GetNote(ctx, note.ID)
	if got.Heading != "Cake" || got.Content.(domain.TextContent).Body != "mix flour" {
		t.Fatalf("rejected updates changed the note: %+v", got)
	}

	update := *got
	update.IsShared = true
	update.Content = domain.TextContent{Body: "mix flour and eggs"}
	if err := s.UpdateNote(ctx, &update); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ = s.GetNote(ctx, note.ID)
	if !got.IsShared || got.Content.(domain.TextContent).Body != "mix flour and eggs" {
		t.Errorf("update not applied: %+v", got)
	}

	headerOnly := *got
	headerOnly.Heading = "Cake v2"
	headerOnly.Content = nil
	if err := s.UpdateNote(ctx, &headerOnly); err != nil {
		t.Fatalf("header update: %v", err)
	}
	got, _ = s.GetNote(ctx, note.ID)
	if got.Heading != "Cake v2" || got.Content.(domain.TextContent).Body != "mix flour and eggs" {
		t.Errorf("header-only update lost content: %+v", got)
	}
}

func TestNotes_UpdateChecksTargetFolderOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, folder := fixture(t, s, "alice")
	_, bobFolder := fixture(t, s, "bob")

	note := &domain.Note{Heading: "Cake", Type: domain.NoteTypeText, FolderID: folder.ID, OwnerID: alice.ID}
	if err := s.CreateNote(ctx, note); err != nil {
		t.Fatalf("create: %v", err)
	}

	for name, folderID := range map[string]int64{"foreign": bobFolder.ID, "missing": 9999} {
		moved := *note
		moved.FolderID = folderID
		moved.Heading = "Moved"
		if err := s.UpdateNote(ctx, &moved); !errors.Is(err, store.ErrFolderNotFound) {
			t.Fatalf("%s folder: expected ErrFolderNotFound, got %v", name, err)
		}
	}

	got, err := s.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FolderID != folder.ID || got.Heading != "Cake" {
		t.Errorf("rejected move changed the note: %+v", got)
	}

	gone := *note
	gone.ID = 9999
	if err := s.UpdateNote(ctx, &gone); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing note, got %v", err)
	}
}

func TestNotes_DeleteScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, folder := fixture(t, s, "alice")
	bob, _ := fixture(t, s, "bob")

	note := &domain.Note{Heading: "Cake", Type: domain.NoteTypeText, FolderID: folder.ID, OwnerID: alice.ID}
	if err := s.CreateNote(ctx, note); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.DeleteNote(ctx, note.ID, bob.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteNote(ctx, note.ID, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetNote(ctx, note.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCascadeDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, folder := fixture(t, s, "alice")
	bob, bobFolder := fixture(t, s, "bob")

	for _, n := range []*domain.Note{
		{Heading: "t", Type: domain.NoteTypeText, FolderID: folder.ID, OwnerID: alice.ID},
		{Heading: "l", Type: domain.NoteTypeList, FolderID: folder.ID, OwnerID: alice.ID},
		{Heading: "b", Type: domain.NoteTypeText, FolderID: bobFolder.ID, OwnerID: bob.ID},
	} {
		if err := s.CreateNote(ctx, n); err != nil {
			t.Fatalf("create note: %v", err)
		}
	}

	if err := s.DeleteUser(ctx, alice.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	counts := map[string]int{
		"SELECT COUNT(*) FROM folders":           1,
		"SELECT COUNT(*) FROM notes":             1,
		"SELECT COUNT(*) FROM note_content_text": 1,
		"SELECT COUNT(*) FROM note_content_list": 0,
	}
	for query, want := range counts {
		var got int
		if err := s.db.QueryRow(query).Scan(&got); err != nil {
			t.Fatalf("%s: %v", query, err)
		}
		if got != want {
			t.Errorf("%s = %d, want %d", query, got, want)
		}
	}
}

func TestFolderDeleteCascadesNotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, folder := fixture(t, s, "alice")

	note := &domain.Note{Heading: "Cake", Type: domain.NoteTypeText, FolderID: folder.ID, OwnerID: user.ID}
	if err := s.CreateNote(ctx, note); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteFolder(ctx, folder.ID, user.ID); err != nil {
		t.Fatalf("delete folder: %v", err)
	}
	if _, err := s.GetNote(ctx, note.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected note to be deleted with folder, got %v", err)
	}
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: DriverPostgres, DSN: dsn, ConnectAttempts: 1}, testLogger())
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	username := "pg" + time.Now().Format("150405.000")[:9]
	user := &domain.User{Username: username, Name: "PG", PasswordHash: "h"}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { s.DeleteUser(ctx, user.ID) })

	if err := s.CreateUser(ctx, &domain.User{Username: username, Name: "PG", PasswordHash: "h"}); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	folder := &domain.Folder{Name: "F", OwnerID: user.ID}
	if err := s.CreateFolder(ctx, folder); err != nil {
		t.Fatalf("create folder: %v", err)
	}

	note := &domain.Note{
		Heading: "Cake", Type: domain.NoteTypeList, FolderID: folder.ID, OwnerID: user.ID,
		Content: domain.ListContent{Items: []string{"flour"}},
	}
	if err := s.CreateNote(ctx, note); err != nil {
		t.Fatalf("create note: %v", err)
	}

	got, err := s.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if items := got.Content.(domain.ListContent).Items; len(items) != 1 || items[0] != "flour" {
		t.Errorf("items = %v", items)
	}

	if err := s.DeleteNote(ctx, note.ID, user.ID+1000000); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
