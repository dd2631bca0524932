package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/domain"
	"github.com/foldernotes/notes-server/internal/service"
)

func (s *Server) registerNoteRoutes() {
	required := huma.Middlewares{s.requireAuth(auth.Required)}

	huma.Register(s.api, huma.Operation{
		OperationID: "createNote",
		Method:      http.MethodPost,
		Path:        "/note",
		Summary:     "Create note",
		Description: "Creates a TEXT or LIST note in a folder owned by the caller.",
		Tags:        []string{"Notes"},
		Security:    s.security(),
		Middlewares: required,
	}, s.handleCreateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/note",
		Summary:     "List notes",
		Description: "Returns the caller's notes across all folders, without content.",
		Tags:        []string{"Notes"},
		Security:    s.security(),
		Middlewares: required,
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNote",
		Method:      http.MethodGet,
		Path:        "/note/{id}",
		Summary:     "Get note",
		Description: "Returns a note with its content. Shared notes are readable without a credential; private notes only by their owner.",
		Tags:        []string{"Notes"},
		Middlewares: huma.Middlewares{s.requireAuth(auth.Optional)},
	}, s.handleGetNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNote",
		Method:      http.MethodPut,
		Path:        "/note/{id}",
		Summary:     "Update note",
		Description: "Changes any subset of heading, sharing, folder and content. The note type never changes.",
		Tags:        []string{"Notes"},
		Security:    s.security(),
		Middlewares: required,
	}, s.handleUpdateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteNote",
		Method:      http.MethodDelete,
		Path:        "/note/{id}",
		Summary:     "Delete note",
		Tags:        []string{"Notes"},
		Security:    s.security(),
		Middlewares: required,
	}, s.handleDeleteNote)
}

// === DTOs ===

// CreateNoteRequest is the request body for creating a note.
// Body belongs to TEXT notes and Items to LIST notes.
type CreateNoteRequest struct {
	Type     string   `json:"type,omitempty" doc:"TEXT or LIST"`
	Heading  string   `json:"heading,omitempty" doc:"Heading, at most 50 characters"`
	IsShared bool     `json:"isShared,omitempty" doc:"Readable by anyone when true"`
	FolderID int64    `json:"folderId,omitempty" doc:"Folder owned by the caller"`
	Body     *string  `json:"body,omitempty" doc:"Text of a TEXT note"`
	Items    []string `json:"items,omitempty" doc:"Items of a LIST note"`
}

// CreateNoteInput wraps the create request for Huma.
type CreateNoteInput struct {
	Body CreateNoteRequest
}

// UpdateNoteRequest is the request body for updating a note. Absent fields
// are left unchanged.
type UpdateNoteRequest struct {
	Heading  *string  `json:"heading,omitempty" doc:"New heading"`
	IsShared *bool    `json:"isShared,omitempty" doc:"New sharing flag"`
	FolderID *int64   `json:"folderId,omitempty" doc:"Folder to move the note to"`
	Body     *string  `json:"body,omitempty" doc:"New text, TEXT notes only"`
	Items    []string `json:"items,omitempty" doc:"New items, LIST notes only"`
}

// UpdateNoteInput wraps the update request for Huma.
type UpdateNoteInput struct {
	ID   int64 `path:"id" doc:"Note ID"`
	Body UpdateNoteRequest
}

// NoteIDInput identifies a note.
type NoteIDInput struct {
	ID int64 `path:"id" doc:"Note ID"`
}

// ListNotesInput holds the listing parameters.
type ListNotesInput struct {
	ListQuery
}

// NoteContentResponse is the content of a note: Body for TEXT, Items for LIST.
type NoteContentResponse struct {
	Body  *string  `json:"body,omitempty" doc:"Text of a TEXT note"`
	Items []string `json:"items,omitzero" doc:"Items of a LIST note"`
}

// NoteResponse is a note in API responses. Content is omitted in listings.
type NoteResponse struct {
	ID       int64                `json:"id" doc:"Note ID"`
	Heading  string               `json:"heading" doc:"Heading"`
	IsShared bool                 `json:"isShared" doc:"Readable by anyone when true"`
	Type     domain.NoteType      `json:"type" enum:"TEXT,LIST" doc:"Content variant, fixed at creation"`
	FolderID int64                `json:"folderId" doc:"Containing folder"`
	UserID   int64                `json:"userId" doc:"Owner"`
	Content  *NoteContentResponse `json:"content,omitempty" doc:"Note content"`
}

// NoteEnvelope wraps a single note as {"note": ...}.
type NoteEnvelope struct {
	Note NoteResponse `json:"note"`
}

// NoteOutput wraps a single note for Huma.
type NoteOutput struct {
	Body NoteEnvelope
}

// NoteDetailOutput returns a note unwrapped, with its content.
type NoteDetailOutput struct {
	Body NoteResponse
}

// NoteListEnvelope wraps a list as {"notes": [...]}.
type NoteListEnvelope struct {
	Notes []NoteResponse `json:"notes"`
}

// NoteListOutput wraps the note list for Huma.
type NoteListOutput struct {
	Body NoteListEnvelope
}

func toNoteResponse(n *domain.Note) NoteResponse {
	resp := NoteResponse{
		ID:       n.ID,
		Heading:  n.Heading,
		IsShared: n.IsShared,
		Type:     n.Type,
		FolderID: n.FolderID,
		UserID:   n.OwnerID,
	}

	switch c := n.Content.(type) {
	case nil:
	case domain.TextContent:
		body := c.Body
		resp.Content = &NoteContentResponse{Body: &body}
	case domain.ListContent:
		items := c.Items
		if items == nil {
			items = []string{}
		}
		resp.Content = &NoteContentResponse{Items: items}
	default:
		panic("api: unknown note content " + string(c.Type()))
	}
	return resp
}

func toNoteResponses(notes []*domain.Note) []NoteResponse {
	resp := make([]NoteResponse, len(notes))
	for i, n := range notes {
		resp[i] = toNoteResponse(n)
	}
	return resp
}

// === Handlers ===

func (s *Server) handleCreateNote(ctx context.Context, input *CreateNoteInput) (*NoteOutput, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Notes.Create(ctx, actor, service.CreateNoteRequest{
		Type:     domain.NoteType(input.Body.Type),
		Heading:  input.Body.Heading,
		IsShared: input.Body.IsShared,
		FolderID: input.Body.FolderID,
		Body:     input.Body.Body,
		Items:    input.Body.Items,
	})
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: NoteEnvelope{Note: toNoteResponse(note)}}, nil
}

func (s *Server) handleListNotes(ctx context.Context, input *ListNotesInput) (*NoteListOutput, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	notes, err := s.services.Notes.List(ctx, actor, input.options())
	if err != nil {
		return nil, err
	}
	return &NoteListOutput{Body: NoteListEnvelope{Notes: toNoteResponses(notes)}}, nil
}

func (s *Server) handleGetNote(ctx context.Context, input *NoteIDInput) (*NoteDetailOutput, error) {
	note, err := s.services.Notes.Get(ctx, auth.IdentityFrom(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &NoteDetailOutput{Body: toNoteResponse(note)}, nil
}

func (s *Server) handleUpdateNote(ctx context.Context, input *UpdateNoteInput) (*NoteOutput, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Notes.Update(ctx, actor, input.ID, service.UpdateNoteRequest{
		Heading:  input.Body.Heading,
		IsShared: input.Body.IsShared,
		FolderID: input.Body.FolderID,
		Body:     input.Body.Body,
		Items:    input.Body.Items,
	})
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: NoteEnvelope{Note: toNoteResponse(note)}}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *NoteIDInput) (*DeletedOutput, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Notes.Delete(ctx, actor, input.ID); err != nil {
		return nil, err
	}
	return &DeletedOutput{Body: DeletedResponse{ID: input.ID, Deleted: true}}, nil
}
