// Package store defines the persistence interface of the notes server.
package store

import (
	"context"

	"github.com/foldernotes/notes-server/internal/domain"
)

// NoteFilter narrows a note listing. OwnerID is always applied.
type NoteFilter struct {
	OwnerID  int64
	FolderID *int64
}

// Store defines all persistence operations. Every write that acts on an
// existing folder or note names both the resource and its owner, so the
// ownership check and the mutation happen in one statement.
type Store interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	DeleteUser(ctx context.Context, userID int64) error

	// Folders
	CreateFolder(ctx context.Context, folder *domain.Folder) error
	GetFolder(ctx context.Context, id int64) (*domain.Folder, error)
	ListFolders(ctx context.Context, ownerID int64) ([]*domain.Folder, error)
	UpdateFolder(ctx context.Context, id, ownerID int64, name string) error
	DeleteFolder(ctx context.Context, id, ownerID int64) error

	// Notes
	CreateNote(ctx context.Context, note *domain.Note) error
	GetNote(ctx context.Context, id int64) (*domain.Note, error)
	ListNotes(ctx context.Context, filter NoteFilter, opts domain.NoteListOptions) ([]*domain.Note, error)
	UpdateNote(ctx context.Context, note *domain.Note) error
	DeleteNote(ctx context.Context, id, ownerID int64) error
}
