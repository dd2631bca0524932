package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/foldernotes/notes-server/internal/domain"
	domainerrors "github.com/foldernotes/notes-server/internal/errors"
	"github.com/foldernotes/notes-server/internal/policy"
	"github.com/foldernotes/notes-server/internal/store"
	"github.com/foldernotes/notes-server/internal/validation"
)

// FolderStore is the part of store.Store the folder service needs.
type FolderStore interface {
	CreateFolder(ctx context.Context, folder *domain.Folder) error
	GetFolder(ctx context.Context, id int64) (*domain.Folder, error)
	ListFolders(ctx context.Context, ownerID int64) ([]*domain.Folder, error)
	UpdateFolder(ctx context.Context, id, ownerID int64, name string) error
	DeleteFolder(ctx context.Context, id, ownerID int64) error
	ListNotes(ctx context.Context, filter store.NoteFilter, opts domain.NoteListOptions) ([]*domain.Note, error)
}

// FolderService manages an actor's folders.
type FolderService struct {
	store     FolderStore
	validator *validation.Validator
	logger    *slog.Logger
}

// NewFolderService creates a folder service.
func NewFolderService(store FolderStore, validator *validation.Validator, logger *slog.Logger) *FolderService {
	return &FolderService{store: store, validator: validator, logger: logger}
}

// FolderRequest names a folder on create and rename.
type FolderRequest struct {
	Name string `json:"name" validate:"required,max=20"`
}

// FolderDetail is a folder with a page of its notes.
type FolderDetail struct {
	Folder *domain.Folder
	Notes  []*domain.Note
}

// Create creates a folder owned by actor.
func (s *FolderService) Create(ctx context.Context, actor domain.Identity, req FolderRequest) (*domain.Folder, error) {
	if err := policy.CanCreateFolder(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	folder := &domain.Folder{Name: req.Name, OwnerID: actor.UserID}
	if err := s.store.CreateFolder(ctx, folder); err != nil {
		return nil, s.internal("Failed to create folder", err)
	}

	s.logger.Debug("Folder created", "folder_id", folder.ID, "user_id", actor.UserID)
	return folder, nil
}

// List returns the actor's folders.
func (s *FolderService) List(ctx context.Context, actor domain.Identity) ([]*domain.Folder, error) {
	folders, err := s.store.ListFolders(ctx, actor.UserID)
	if err != nil {
		return nil, s.internal("Failed to list folders", err)
	}
	return folders, nil
}

// Get returns a folder owned by actor with its notes. Folders of other
// users are reported as missing.
func (s *FolderService) Get(ctx context.Context, actor domain.Identity, id int64, opts domain.NoteListOptions) (*FolderDetail, error) {
	opts = opts.Normalize()
	if err := s.validator.Validate(opts); err != nil {
		return nil, err
	}

	folder, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadFolder(actor, folder); err != nil {
		return nil, err
	}

	notes, err := s.store.ListNotes(ctx, store.NoteFilter{OwnerID: actor.UserID, FolderID: &folder.ID}, opts)
	if err != nil {
		return nil, s.internal("Failed to list folder notes", err)
	}

	return &FolderDetail{Folder: folder, Notes: notes}, nil
}

// Update renames a folder owned by actor.
func (s *FolderService) Update(ctx context.Context, actor domain.Identity, id int64, req FolderRequest) (*domain.Folder, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	err := s.store.UpdateFolder(ctx, id, actor.UserID, req.Name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, s.internal("Failed to update folder", err)
	}
	if denied := policy.CanUpdateFolder(err == nil); denied != nil {
		return nil, denied
	}

	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, s.internal("Failed to reload folder", err)
	}
	return folder, nil
}

// Delete deletes a folder owned by actor and every note in it.
func (s *FolderService) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	err := s.store.DeleteFolder(ctx, id, actor.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return s.internal("Failed to delete folder", err)
	}
	if denied := policy.CanDeleteFolder(err == nil); denied != nil {
		return denied
	}

	s.logger.Debug("Folder deleted", "folder_id", id, "user_id", actor.UserID)
	return nil
}

// load returns the folder or nil when it does not exist.
func (s *FolderService) load(ctx context.Context, id int64) (*domain.Folder, error) {
	folder, err := s.store.GetFolder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.internal("Failed to load folder", err)
	}
	return folder, nil
}

func (s *FolderService) internal(msg string, err error) error {
	s.logger.Error(msg, "error", err)
	return domainerrors.ErrInternal.WithCause(err)
}
