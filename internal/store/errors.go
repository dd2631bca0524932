package store

import "errors"

// Sentinel errors returned by Store implementations. Callers match them
// with errors.Is; implementations may wrap them with context.
var (
	// ErrNotFound means no row matched, including owner-scoped writes that
	// named someone else's resource.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists means a unique constraint rejected the write.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrFolderNotFound means a note write named a folder that does not
	// exist or belongs to someone else.
	ErrFolderNotFound = errors.New("folder not found")

	// ErrContentMismatch means note content did not match the note type.
	// The surrounding transaction is rolled back.
	ErrContentMismatch = errors.New("note content does not match note type")
)
