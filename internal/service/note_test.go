package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldernotes/notes-server/internal/domain"
	domainerrors "github.com/foldernotes/notes-server/internal/errors"
	"github.com/foldernotes/notes-server/internal/store/sqlstore"
	"github.com/foldernotes/notes-server/internal/validation"
)

func TestNoteService_Create(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	folder := env.createFolder(t, alice, "Recipes")

	list, err := env.notes.Create(ctx, alice, CreateNoteRequest{
		Type: domain.NoteTypeList, Heading: "Shopping", FolderID: folder.ID, Items: []string{"eggs"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ListContent{Items: []string{"eggs"}}, list.Content)
	assert.False(t, list.IsShared)

	empty, err := env.notes.Create(ctx, alice, CreateNoteRequest{
		Type: domain.NoteTypeText, Heading: "Blank", FolderID: folder.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TextContent{}, empty.Content)
}

func TestNoteService_CreateRejections(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	folder := env.createFolder(t, alice, "Recipes")

	tests := []struct {
		name  string
		actor domain.Identity
		req   CreateNoteRequest
		want  error
	}{
		{"foreign folder", bob, CreateNoteRequest{Type: domain.NoteTypeText, Heading: "x", FolderID: folder.ID}, domainerrors.ErrFolderNotFound},
		{"missing folder", alice, CreateNoteRequest{Type: domain.NoteTypeText, Heading: "x", FolderID: 9999}, domainerrors.ErrFolderNotFound},
		{"unknown type", alice, CreateNoteRequest{Type: "IMAGE", Heading: "x", FolderID: folder.ID}, domainerrors.ErrValidation},
		{"missing heading", alice, CreateNoteRequest{Type: domain.NoteTypeText, FolderID: folder.ID}, domainerrors.ErrValidation},
		{"items on text", alice, CreateNoteRequest{Type: domain.NoteTypeText, Heading: "x", FolderID: folder.ID, Items: []string{"a"}}, domainerrors.ErrValidation},
		{"body on list", alice, CreateNoteRequest{Type: domain.NoteTypeList, Heading: "x", FolderID: folder.ID, Body: ptr("b")}, domainerrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.notes.Create(ctx, tt.actor, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	notes, err := env.notes.List(ctx, alice, domain.NoteListOptions{})
	require.NoError(t, err)
	assert.Empty(t, notes, "rejected creates leave nothing behind")
}

// TestNoteService_SharingScenario follows alice sharing a private note with
// an anonymous reader.
func TestNoteService_SharingScenario(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	folder := env.createFolder(t, alice, "Recipes")
	cake := env.createTextNote(t, alice, folder.ID, "Cake", "mix flour")

	_, err := env.notes.Get(ctx, nil, cake.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)
	assert.EqualError(t, err, "you dont have access to this note")

	_, err = env.notes.Get(ctx, &bob, cake.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)

	own, err := env.notes.Get(ctx, &alice, cake.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TextContent{Body: "mix flour"}, own.Content)

	_, err = env.notes.Update(ctx, alice, cake.ID, UpdateNoteRequest{IsShared: ptr(true)})
	require.NoError(t, err)

	anon, err := env.notes.Get(ctx, nil, cake.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TextContent{Body: "mix flour"}, anon.Content)

	_, err = env.notes.Update(ctx, bob, cake.ID, UpdateNoteRequest{Heading: ptr("Mine")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound, "sharing grants no write access")

	err = env.notes.Delete(ctx, bob, cake.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = env.notes.Get(ctx, nil, 9999)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestNoteService_UpdateTypeImmutable(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	folder := env.createFolder(t, alice, "Recipes")
	cake := env.createTextNote(t, alice, folder.ID, "Cake", "mix flour")

	_, err := env.notes.Update(ctx, alice, cake.ID, UpdateNoteRequest{Heading: ptr("New"), Items: []string{"a"}})
	assert.ErrorIs(t, err, domainerrors.ErrTypeMismatch)

	stored, err := env.notes.Get(ctx, &alice, cake.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cake", stored.Heading)
	assert.Equal(t, domain.NoteTypeText, stored.Type)
	assert.Equal(t, domain.TextContent{Body: "mix flour"}, stored.Content)

	updated, err := env.notes.Update(ctx, alice, cake.ID, UpdateNoteRequest{Body: ptr("mix flour and sugar")})
	require.NoError(t, err)
	assert.Equal(t, domain.TextContent{Body: "mix flour and sugar"}, updated.Content)
	assert.Equal(t, "Cake", updated.Heading)
}

func TestNoteService_UpdateCheckOrder(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	folder := env.createFolder(t, alice, "Recipes")
	bobFolder := env.createFolder(t, bob, "Bob")
	cake := env.createTextNote(t, alice, folder.ID, "Cake", "mix flour")

	// Missing note wins over everything else.
	_, err := env.notes.Update(ctx, alice, 9999, UpdateNoteRequest{Items: []string{"a"}, FolderID: &bobFolder.ID})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	// Type mismatch wins over a bad folder.
	_, err = env.notes.Update(ctx, alice, cake.ID, UpdateNoteRequest{Items: []string{"a"}, FolderID: &bobFolder.ID})
	assert.ErrorIs(t, err, domainerrors.ErrTypeMismatch)

	_, err = env.notes.Update(ctx, alice, cake.ID, UpdateNoteRequest{FolderID: &bobFolder.ID})
	assert.ErrorIs(t, err, domainerrors.ErrFolderNotFound)

	stored, err := env.notes.Get(ctx, &alice, cake.ID)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, stored.FolderID, "note must not move into a foreign folder")

	second := env.createFolder(t, alice, "Desserts")
	moved, err := env.notes.Update(ctx, alice, cake.ID, UpdateNoteRequest{FolderID: &second.ID})
	require.NoError(t, err)
	assert.Equal(t, second.ID, moved.FolderID)
}

// folderDroppingStore deletes the note's target folder right before the
// update reaches the database.
type folderDroppingStore struct {
	*sqlstore.Store
}

func (s folderDroppingStore) UpdateNote(ctx context.Context, note *domain.Note) error {
	if err := s.DeleteFolder(ctx, note.FolderID, note.OwnerID); err != nil {
		return err
	}
	return s.Store.UpdateNote(ctx, note)
}

func TestNoteService_UpdateFolderDeletedConcurrently(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	folder := env.createFolder(t, alice, "Recipes")
	target := env.createFolder(t, alice, "Desserts")
	cake := env.createTextNote(t, alice, folder.ID, "Cake", "mix flour")

	notes := NewNoteService(folderDroppingStore{env.store}, validation.New(), slog.New(slog.DiscardHandler))
	_, err := notes.Update(ctx, alice, cake.ID, UpdateNoteRequest{FolderID: &target.ID})
	assert.ErrorIs(t, err, domainerrors.ErrFolderNotFound)

	stored, err := env.notes.Get(ctx, &alice, cake.ID)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, stored.FolderID)
}

func TestNoteService_ListAndDelete(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	folder := env.createFolder(t, alice, "Recipes")
	bobFolder := env.createFolder(t, bob, "Bob")

	cake := env.createTextNote(t, alice, folder.ID, "Cake", "a")
	env.createTextNote(t, alice, folder.ID, "Apple pie", "b")
	env.createTextNote(t, bob, bobFolder.ID, "Bob note", "c")

	notes, err := env.notes.List(ctx, alice, domain.NoteListOptions{Heading: domain.SortAsc})
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Apple pie", notes[0].Heading)
	assert.Equal(t, "Cake", notes[1].Heading)

	require.NoError(t, env.notes.Delete(ctx, alice, cake.ID))

	notes, err = env.notes.List(ctx, alice, domain.NoteListOptions{})
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}
