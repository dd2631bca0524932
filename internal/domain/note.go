package domain

import (
	"fmt"
	"time"
)

// NoteType selects the content variant of a note. It never changes after creation.
type NoteType string

// Note types.
const (
	NoteTypeText NoteType = "TEXT"
	NoteTypeList NoteType = "LIST"
)

// Valid reports whether t is a known note type.
func (t NoteType) Valid() bool {
	return t == NoteTypeText || t == NoteTypeList
}

// NoteContent is the body of a note. The only implementations are
// TextContent and ListContent.
type NoteContent interface {
	Type() NoteType
	noteContent()
}

// TextContent is the content of a TEXT note.
type TextContent struct {
	Body string
}

// Type implements NoteContent.
func (TextContent) Type() NoteType { return NoteTypeText }

func (TextContent) noteContent() {}

// ListContent is the content of a LIST note.
type ListContent struct {
	Items []string
}

// Type implements NoteContent.
func (ListContent) Type() NoteType { return NoteTypeList }

func (ListContent) noteContent() {}

// EmptyContent returns the zero content for a note type.
func EmptyContent(t NoteType) (NoteContent, error) {
	switch t {
	case NoteTypeText:
		return TextContent{}, nil
	case NoteTypeList:
		return ListContent{Items: []string{}}, nil
	default:
		return nil, fmt.Errorf("unknown note type %q", t)
	}
}

// Note is a note header plus its content. Content is nil when only the
// header was loaded, as in listings.
type Note struct {
	ID        int64
	Heading   string
	IsShared  bool
	Type      NoteType
	FolderID  int64
	OwnerID   int64
	Content   NoteContent
	CreatedAt time.Time
	UpdatedAt time.Time
}
