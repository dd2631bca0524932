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

// NoteStore is the part of store.Store the note service needs.
type NoteStore interface {
	GetFolder(ctx context.Context, id int64) (*domain.Folder, error)
	CreateNote(ctx context.Context, note *domain.Note) error
	GetNote(ctx context.Context, id int64) (*domain.Note, error)
	ListNotes(ctx context.Context, filter store.NoteFilter, opts domain.NoteListOptions) ([]*domain.Note, error)
	UpdateNote(ctx context.Context, note *domain.Note) error
	DeleteNote(ctx context.Context, id, ownerID int64) error
}

// NoteService manages notes and their visibility.
type NoteService struct {
	store     NoteStore
	validator *validation.Validator
	logger    *slog.Logger
}

// NewNoteService creates a note service.
func NewNoteService(store NoteStore, validator *validation.Validator, logger *slog.Logger) *NoteService {
	return &NoteService{store: store, validator: validator, logger: logger}
}

// CreateNoteRequest describes a new note. Body is accepted for TEXT notes
// and Items for LIST notes; absent content starts empty.
type CreateNoteRequest struct {
	Type     domain.NoteType `json:"type" validate:"required,oneof=TEXT LIST"`
	Heading  string          `json:"heading" validate:"required,max=50"`
	IsShared bool            `json:"isShared"`
	FolderID int64           `json:"folderId" validate:"required,gt=0"`
	Body     *string         `json:"body"`
	Items    []string        `json:"items"`
}

// UpdateNoteRequest changes any subset of a note. Nil fields are kept.
type UpdateNoteRequest struct {
	Heading  *string  `json:"heading" validate:"omitempty,min=1,max=50"`
	IsShared *bool    `json:"isShared"`
	FolderID *int64   `json:"folderId" validate:"omitempty,gt=0"`
	Body     *string  `json:"body"`
	Items    []string `json:"items"`
}

// Create creates a note in a folder owned by actor. Header and content are
// written together or not at all.
func (s *NoteService) Create(ctx context.Context, actor domain.Identity, req CreateNoteRequest) (*domain.Note, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	content, err := createContent(req)
	if err != nil {
		return nil, err
	}

	folder, err := s.loadFolder(ctx, req.FolderID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanCreateNote(actor, folder); err != nil {
		return nil, err
	}

	note := &domain.Note{
		Heading:  req.Heading,
		IsShared: req.IsShared,
		Type:     req.Type,
		FolderID: folder.ID,
		OwnerID:  actor.UserID,
		Content:  content,
	}
	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, s.internal("Failed to create note", err)
	}

	s.logger.Debug("Note created", "note_id", note.ID, "type", note.Type, "user_id", actor.UserID)
	return note, nil
}

// createContent builds the content of a new note, rejecting fields of the
// other variant.
func createContent(req CreateNoteRequest) (domain.NoteContent, error) {
	switch req.Type {
	case domain.NoteTypeText:
		if req.Items != nil {
			return nil, domainerrors.Validation("validation error", "items is not allowed for TEXT notes")
		}
		if req.Body == nil {
			return domain.TextContent{}, nil
		}
		return domain.TextContent{Body: *req.Body}, nil
	case domain.NoteTypeList:
		if req.Body != nil {
			return nil, domainerrors.Validation("validation error", "body is not allowed for LIST notes")
		}
		if req.Items == nil {
			return domain.ListContent{Items: []string{}}, nil
		}
		return domain.ListContent{Items: req.Items}, nil
	default:
		return nil, domainerrors.Validation("validation error", "type must be one of: TEXT, LIST")
	}
}

// List returns the actor's own notes across all folders.
func (s *NoteService) List(ctx context.Context, actor domain.Identity, opts domain.NoteListOptions) ([]*domain.Note, error) {
	opts = opts.Normalize()
	if err := s.validator.Validate(opts); err != nil {
		return nil, err
	}

	notes, err := s.store.ListNotes(ctx, store.NoteFilter{OwnerID: actor.UserID}, opts)
	if err != nil {
		return nil, s.internal("Failed to list notes", err)
	}
	return notes, nil
}

// Get returns a note with its content. actor is nil for anonymous callers,
// who can read shared notes only.
func (s *NoteService) Get(ctx context.Context, actor *domain.Identity, id int64) (*domain.Note, error) {
	note, err := s.loadNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadNote(actor, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Update applies req to a note owned by actor. Checks run in order: the
// note must exist for the actor (404), content must match the note type
// (403), and a new folder must belong to the actor (400).
func (s *NoteService) Update(ctx context.Context, actor domain.Identity, id int64, req UpdateNoteRequest) (*domain.Note, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	note, err := s.loadNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanEditNote(actor, note); err != nil {
		return nil, err
	}

	content, err := updateContent(note.Type, req)
	if err != nil {
		return nil, err
	}

	if req.FolderID != nil && *req.FolderID != note.FolderID {
		folder, err := s.loadFolder(ctx, *req.FolderID)
		if err != nil {
			return nil, err
		}
		if err := policy.CanReassignNoteFolder(actor, folder); err != nil {
			return nil, err
		}
		note.FolderID = folder.ID
	}
	if req.Heading != nil {
		note.Heading = *req.Heading
	}
	if req.IsShared != nil {
		note.IsShared = *req.IsShared
	}

	update := *note
	update.OwnerID = actor.UserID
	update.Content = content

	err = s.store.UpdateNote(ctx, &update)
	switch {
	case errors.Is(err, store.ErrContentMismatch):
		return nil, domainerrors.TypeMismatch(policy.MsgNoteTypeMismatch)
	case errors.Is(err, store.ErrFolderNotFound):
		return nil, policy.CanReassignNoteFolder(actor, nil)
	case errors.Is(err, store.ErrNotFound):
		return nil, policy.CanUpdateNote(false)
	case err != nil:
		return nil, s.internal("Failed to update note", err)
	}

	note.UpdatedAt = update.UpdatedAt
	if content != nil {
		note.Content = content
	}

	s.logger.Debug("Note updated", "note_id", note.ID, "user_id", actor.UserID)
	return note, nil
}

// updateContent returns the replacement content in req, or nil to keep the
// stored content.
func updateContent(noteType domain.NoteType, req UpdateNoteRequest) (domain.NoteContent, error) {
	var candidates []domain.NoteContent
	if req.Body != nil {
		candidates = append(candidates, domain.TextContent{Body: *req.Body})
	}
	if req.Items != nil {
		candidates = append(candidates, domain.ListContent{Items: req.Items})
	}

	var content domain.NoteContent
	for _, c := range candidates {
		if err := policy.CheckContentType(noteType, c); err != nil {
			return nil, err
		}
		content = c
	}
	return content, nil
}

// Delete deletes a note owned by actor.
func (s *NoteService) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	err := s.store.DeleteNote(ctx, id, actor.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return s.internal("Failed to delete note", err)
	}
	if denied := policy.CanDeleteNote(err == nil); denied != nil {
		return denied
	}

	s.logger.Debug("Note deleted", "note_id", id, "user_id", actor.UserID)
	return nil
}

// loadNote returns the note or nil when it does not exist.
func (s *NoteService) loadNote(ctx context.Context, id int64) (*domain.Note, error) {
	note, err := s.store.GetNote(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.internal("Failed to load note", err)
	}
	return note, nil
}

// loadFolder returns the folder or nil when it does not exist.
func (s *NoteService) loadFolder(ctx context.Context, id int64) (*domain.Folder, error) {
	folder, err := s.store.GetFolder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.internal("Failed to load folder", err)
	}
	return folder, nil
}

func (s *NoteService) internal(msg string, err error) error {
	s.logger.Error(msg, "error", err)
	return domainerrors.ErrInternal.WithCause(err)
}
