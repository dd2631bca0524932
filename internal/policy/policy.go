// Package policy decides whether an identity may act on folders and notes.
//
// Every check is a pure function of the actor and the loaded resource and
// returns nil or a coded domain error carrying the message clients see.
// Write checks take a "matched" flag: the store scopes writes by owner, so a
// write that matched no row means the resource is missing or belongs to
// someone else, and both answer the same way.
package policy

import (
	"github.com/foldernotes/notes-server/internal/domain"
	domainerrors "github.com/foldernotes/notes-server/internal/errors"
)

// Messages shared with clients.
const (
	MsgFolderMissing    = "folder does not exist"
	MsgFolderNoUpdate   = "folder cant be updated"
	MsgFolderNoDelete   = "folder cant be deleted"
	MsgNoteMissing      = "note does not exist"
	MsgNoteNoAccess     = "you dont have access to this note"
	MsgNoteNoUpdate     = "note cant be updated"
	MsgNoteNoDelete     = "note cant be deleted"
	MsgNoteTypeMismatch = "note type cannot be changed"
)

// CanCreateFolder requires an authenticated actor.
func CanCreateFolder(actor domain.Identity) error {
	if actor.UserID == 0 {
		return domainerrors.Unauthenticated("not authenticated")
	}
	return nil
}

// CanReadFolder allows the owner only. Foreign folders look missing.
func CanReadFolder(actor domain.Identity, folder *domain.Folder) error {
	if folder == nil || !actor.Owns(folder.OwnerID) {
		return domainerrors.NotFound(MsgFolderMissing)
	}
	return nil
}

// CanUpdateFolder checks the outcome of an owner-scoped rename.
func CanUpdateFolder(matched bool) error {
	if !matched {
		return domainerrors.Forbidden(MsgFolderNoUpdate)
	}
	return nil
}

// CanDeleteFolder checks the outcome of an owner-scoped delete.
func CanDeleteFolder(matched bool) error {
	if !matched {
		return domainerrors.Forbidden(MsgFolderNoDelete)
	}
	return nil
}

// CanCreateNote checks that a note may be created in folder.
func CanCreateNote(actor domain.Identity, folder *domain.Folder) error {
	return requireOwnFolder(actor, folder)
}

// CanReassignNoteFolder checks that a note may be moved to folder.
func CanReassignNoteFolder(actor domain.Identity, folder *domain.Folder) error {
	return requireOwnFolder(actor, folder)
}

func requireOwnFolder(actor domain.Identity, folder *domain.Folder) error {
	if folder == nil || !actor.Owns(folder.OwnerID) {
		return domainerrors.FolderNotFound(MsgFolderMissing)
	}
	return nil
}

// CanReadNote allows the owner, and anyone including anonymous callers when
// the note is shared. actor is nil for anonymous requests.
func CanReadNote(actor *domain.Identity, note *domain.Note) error {
	if note == nil {
		return domainerrors.NotFound(MsgNoteMissing)
	}
	if note.IsShared {
		return nil
	}
	if actor == nil || !actor.Owns(note.OwnerID) {
		return domainerrors.AccessDenied(MsgNoteNoAccess)
	}
	return nil
}

// CanEditNote checks that an owner-scoped lookup found the note to edit.
// Sharing grants read access only.
func CanEditNote(actor domain.Identity, note *domain.Note) error {
	if note == nil || !actor.Owns(note.OwnerID) {
		return domainerrors.NotFound(MsgNoteMissing)
	}
	return nil
}

// CanUpdateNote checks the outcome of an owner-scoped note update.
func CanUpdateNote(matched bool) error {
	if !matched {
		return domainerrors.Forbidden(MsgNoteNoUpdate)
	}
	return nil
}

// CanDeleteNote checks the outcome of an owner-scoped delete.
func CanDeleteNote(matched bool) error {
	if !matched {
		return domainerrors.Forbidden(MsgNoteNoDelete)
	}
	return nil
}

// CheckContentType rejects content whose variant differs from the note type.
func CheckContentType(noteType domain.NoteType, content domain.NoteContent) error {
	if content == nil || content.Type() == noteType {
		return nil
	}
	return domainerrors.TypeMismatch(MsgNoteTypeMismatch)
}
