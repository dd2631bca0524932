package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/domain"
	"github.com/foldernotes/notes-server/internal/service"
)

func (s *Server) registerFolderRoutes() {
	required := huma.Middlewares{s.requireAuth(auth.Required)}

	huma.Register(s.api, huma.Operation{
		OperationID: "createFolder",
		Method:      http.MethodPost,
		Path:        "/folder",
		Summary:     "Create folder",
		Tags:        []string{"Folders"},
		Security:    s.security(),
		Middlewares: required,
	}, s.handleCreateFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFolders",
		Method:      http.MethodGet,
		Path:        "/folder",
		Summary:     "List folders",
		Description: "Returns the folders of the authenticated user.",
		Tags:        []string{"Folders"},
		Security:    s.security(),
		Middlewares: required,
	}, s.handleListFolders)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFolder",
		Method:      http.MethodGet,
		Path:        "/folder/{id}",
		Summary:     "Get folder",
		Description: "Returns a folder with a page of its notes. Folders of other users are reported as missing.",
		Tags:        []string{"Folders"},
		Security:    s.security(),
		Middlewares: required,
	}, s.handleGetFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateFolder",
		Method:      http.MethodPut,
		Path:        "/folder/{id}",
		Summary:     "Rename folder",
		Tags:        []string{"Folders"},
		Security:    s.security(),
		Middlewares: required,
	}, s.handleUpdateFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteFolder",
		Method:      http.MethodDelete,
		Path:        "/folder/{id}",
		Summary:     "Delete folder",
		Description: "Deletes a folder and every note in it.",
		Tags:        []string{"Folders"},
		Security:    s.security(),
		Middlewares: required,
	}, s.handleDeleteFolder)
}

// === DTOs ===

// FolderRequest is the request body for creating and renaming a folder.
type FolderRequest struct {
	Name string `json:"name,omitempty" doc:"Folder name, at most 20 characters"`
}

// CreateFolderInput wraps the create request for Huma.
type CreateFolderInput struct {
	Body FolderRequest
}

// UpdateFolderInput wraps the rename request for Huma.
type UpdateFolderInput struct {
	ID   int64 `path:"id" doc:"Folder ID"`
	Body FolderRequest
}

// FolderIDInput identifies a folder.
type FolderIDInput struct {
	ID int64 `path:"id" doc:"Folder ID"`
}

// ListQuery holds the ordering and paging parameters of note listings.
type ListQuery struct {
	Shared  string `query:"shared" doc:"Order by sharing flag: ASC or DESC"`
	Heading string `query:"heading" doc:"Order by heading: ASC or DESC"`
	Offset  int    `query:"offset" minimum:"0" doc:"Notes to skip"`
	Limit   int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size, default 50"`
}

func (q ListQuery) options() domain.NoteListOptions {
	return domain.NoteListOptions{
		Shared:  domain.SortDirection(q.Shared),
		Heading: domain.SortDirection(q.Heading),
		Offset:  q.Offset,
		Limit:   q.Limit,
	}
}

// GetFolderInput identifies a folder and pages its notes.
type GetFolderInput struct {
	ID int64 `path:"id" doc:"Folder ID"`
	ListQuery
}

// FolderResponse is a folder in API responses.
type FolderResponse struct {
	ID   int64  `json:"id" doc:"Folder ID"`
	Name string `json:"name" doc:"Folder name"`
}

// FolderDetailResponse is a folder with its notes.
type FolderDetailResponse struct {
	ID    int64          `json:"id" doc:"Folder ID"`
	Name  string         `json:"name" doc:"Folder name"`
	Notes []NoteResponse `json:"notes" doc:"Notes in the folder, without content"`
}

// FolderOutput wraps a folder for Huma.
type FolderOutput struct {
	Body FolderResponse
}

// FolderListOutput wraps the folder list for Huma.
type FolderListOutput struct {
	Body []FolderResponse
}

// FolderDetailOutput wraps a folder with notes for Huma.
type FolderDetailOutput struct {
	Body FolderDetailResponse
}

// DeletedResponse confirms a deletion.
type DeletedResponse struct {
	ID      int64 `json:"id" doc:"ID of the deleted resource"`
	Deleted bool  `json:"deleted" doc:"Always true"`
}

// DeletedOutput wraps a deletion confirmation for Huma.
type DeletedOutput struct {
	Body DeletedResponse
}

func toFolderResponse(f *domain.Folder) FolderResponse {
	return FolderResponse{ID: f.ID, Name: f.Name}
}

// === Handlers ===

func (s *Server) handleCreateFolder(ctx context.Context, input *CreateFolderInput) (*FolderOutput, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	folder, err := s.services.Folders.Create(ctx, actor, service.FolderRequest{Name: input.Body.Name})
	if err != nil {
		return nil, err
	}
	return &FolderOutput{Body: toFolderResponse(folder)}, nil
}

func (s *Server) handleListFolders(ctx context.Context, _ *struct{}) (*FolderListOutput, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	folders, err := s.services.Folders.List(ctx, actor)
	if err != nil {
		return nil, err
	}

	resp := make([]FolderResponse, len(folders))
	for i, f := range folders {
		resp[i] = toFolderResponse(f)
	}
	return &FolderListOutput{Body: resp}, nil
}

func (s *Server) handleGetFolder(ctx context.Context, input *GetFolderInput) (*FolderDetailOutput, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	detail, err := s.services.Folders.Get(ctx, actor, input.ID, input.options())
	if err != nil {
		return nil, err
	}

	return &FolderDetailOutput{Body: FolderDetailResponse{
		ID:    detail.Folder.ID,
		Name:  detail.Folder.Name,
		Notes: toNoteResponses(detail.Notes),
	}}, nil
}

func (s *Server) handleUpdateFolder(ctx context.Context, input *UpdateFolderInput) (*FolderOutput, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	folder, err := s.services.Folders.Update(ctx, actor, input.ID, service.FolderRequest{Name: input.Body.Name})
	if err != nil {
		return nil, err
	}
	return &FolderOutput{Body: toFolderResponse(folder)}, nil
}

func (s *Server) handleDeleteFolder(ctx context.Context, input *FolderIDInput) (*DeletedOutput, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Folders.Delete(ctx, actor, input.ID); err != nil {
		return nil, err
	}
	return &DeletedOutput{Body: DeletedResponse{ID: input.ID, Deleted: true}}, nil
}
