package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foldernotes/notes-server/internal/domain"
	"github.com/foldernotes/notes-server/internal/metrics"
	"github.com/foldernotes/notes-server/internal/store"
)

const noteColumns = `n.id, n.heading, n.is_shared, n.type, n.folder_id, n.user_id, n.created_at, n.updated_at`

// noteWithContent joins the header with whichever content row exists.
const noteWithContent = `SELECT ` + noteColumns + `, t.body, l.items
	FROM notes n
	LEFT JOIN note_content_text t ON t.note_id = n.id
	LEFT JOIN note_content_list l ON l.note_id = n.id`

func scanNoteHeader(sc scanner, extra ...any) (*domain.Note, error) {
	var (
		n         domain.Note
		noteType  string
		createdAt string
		updatedAt string
	)
	dest := append([]any{&n.ID, &n.Heading, &n.IsShared, &noteType, &n.FolderID, &n.OwnerID, &createdAt, &updatedAt}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}

	n.Type = domain.NoteType(noteType)

	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func scanNote(sc scanner) (*domain.Note, error) {
	var (
		body  sql.NullString
		items sql.NullString
	)
	n, err := scanNoteHeader(sc, &body, &items)
	if err != nil {
		return nil, err
	}

	switch n.Type {
	case domain.NoteTypeText:
		if !body.Valid {
			return nil, fmt.Errorf("note %d has no text content", n.ID)
		}
		n.Content = domain.TextContent{Body: body.String}
	case domain.NoteTypeList:
		if !items.Valid {
			return nil, fmt.Errorf("note %d has no list content", n.ID)
		}
		list, err := decodeItems(items.String)
		if err != nil {
			return nil, fmt.Errorf("note %d: %w", n.ID, err)
		}
		n.Content = domain.ListContent{Items: list}
	default:
		return nil, fmt.Errorf("note %d has unknown type %q", n.ID, n.Type)
	}
	return n, nil
}

func encodeItems(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}
	return string(data), nil
}

func decodeItems(raw string) ([]string, error) {
	items := []string{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	return items, nil
}

// CreateNote inserts the note header and its content row in one
// transaction and sets the note's ID and timestamps. A nil Content is
// stored as the empty content of the note type. Content of the wrong
// variant returns store.ErrContentMismatch and nothing is written.
func (s *Store) CreateNote(ctx context.Context, note *domain.Note) (err error) {
	defer metrics.ObserveStore("create_note", time.Now(), &err)

	if note.Content == nil {
		if note.Content, err = domain.EmptyContent(note.Type); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	var noteID int64

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, s.rebind(`
			INSERT INTO notes (heading, is_shared, type, folder_id, user_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			note.Heading, note.IsShared, string(note.Type), note.FolderID, note.OwnerID, formatTime(now), formatTime(now),
		).Scan(&noteID)
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}

		return s.insertContent(ctx, tx, noteID, note.Type, note.Content)
	})
	if err != nil {
		return err
	}

	note.ID = noteID
	note.CreatedAt, note.UpdatedAt = now, now
	return nil
}

func (s *Store) insertContent(ctx context.Context, q querier, noteID int64, noteType domain.NoteType, content domain.NoteContent) error {
	if content.Type() != noteType {
		return store.ErrContentMismatch
	}

	switch c := content.(type) {
	case domain.TextContent:
		_, err := q.ExecContext(ctx, s.rebind(`INSERT INTO note_content_text (note_id, body) VALUES (?, ?)`), noteID, c.Body)
		if err != nil {
			return fmt.Errorf("insert text content: %w", err)
		}
	case domain.ListContent:
		items, err := encodeItems(c.Items)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, s.rebind(`INSERT INTO note_content_list (note_id, items) VALUES (?, ?)`), noteID, items); err != nil {
			return fmt.Errorf("insert list content: %w", err)
		}
	default:
		return fmt.Errorf("unknown note content %T", content)
	}
	return nil
}

// GetNote returns a note with its content, or store.ErrNotFound.
// Visibility is the caller's decision.
func (s *Store) GetNote(ctx context.Context, id int64) (note *domain.Note, err error) {
	defer metrics.ObserveStore("get_note", time.Now(), &err)

	row := s.db.QueryRowContext(ctx, s.rebind(noteWithContent+` WHERE n.id = ?`), id)
	note, err = scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// ListNotes returns note headers (Content is nil) matching filter, ordered
// by the requested sort directions and then by id.
func (s *Store) ListNotes(ctx context.Context, filter store.NoteFilter, opts domain.NoteListOptions) (notes []*domain.Note, err error) {
	defer metrics.ObserveStore("list_notes", time.Now(), &err)

	opts = opts.Normalize()

	query := `SELECT ` + noteColumns + ` FROM notes n WHERE n.user_id = ?`
	args := []any{filter.OwnerID}
	if filter.FolderID != nil {
		query += ` AND n.folder_id = ?`
		args = append(args, *filter.FolderID)
	}

	order, err := orderBy(opts)
	if err != nil {
		return nil, err
	}
	query += order + ` LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes = []*domain.Note{}
	for rows.Next() {
		n, err := scanNoteHeader(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

// orderBy builds the ORDER BY clause. Only whitelisted directions reach SQL.
func orderBy(opts domain.NoteListOptions) (string, error) {
	var terms []string
	for _, col := range []struct {
		name string
		dir  domain.SortDirection
	}{
		{"n.is_shared", opts.Shared},
		{"n.heading", opts.Heading},
	} {
		switch col.dir {
		case "":
		case domain.SortAsc, domain.SortDesc:
			terms = append(terms, col.name+" "+string(col.dir))
		default:
			return "", fmt.Errorf("invalid sort direction %q", col.dir)
		}
	}
	terms = append(terms, "n.id ASC")
	return " ORDER BY " + strings.Join(terms, ", "), nil
}

// UpdateNote writes the header fields and, when Content is set, the content
// row of a note owned by note.OwnerID, in one transaction.
// Returns store.ErrNotFound when no such note belongs to the owner,
// store.ErrFolderNotFound when note.FolderID is not a folder of the owner and
// store.ErrContentMismatch when Content does not match the stored type.
func (s *Store) UpdateNote(ctx context.Context, note *domain.Note) (err error) {
	defer metrics.ObserveStore("update_note", time.Now(), &err)

	now := time.Now().UTC()

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var storedType string
		err := tx.QueryRowContext(ctx, s.rebind(`
			UPDATE notes SET heading = ?, is_shared = ?, folder_id = ?, updated_at = ?
			WHERE id = ? AND user_id = ?
			AND EXISTS (SELECT 1 FROM folders f WHERE f.id = ? AND f.user_id = ?)
			RETURNING type`),
			note.Heading, note.IsShared, note.FolderID, formatTime(now), note.ID, note.OwnerID,
			note.FolderID, note.OwnerID,
		).Scan(&storedType)
		if errors.Is(err, sql.ErrNoRows) {
			return s.updateMiss(ctx, tx, note.ID, note.OwnerID)
		}
		if err != nil {
			return fmt.Errorf("update note: %w", err)
		}

		if note.Content == nil {
			return nil
		}
		if note.Content.Type() != domain.NoteType(storedType) {
			return store.ErrContentMismatch
		}
		return s.updateContent(ctx, tx, note.ID, note.Content)
	})
	if err != nil {
		return err
	}

	note.UpdatedAt = now
	return nil
}

// updateMiss explains an owner-scoped note update that matched no row.
func (s *Store) updateMiss(ctx context.Context, q querier, noteID, ownerID int64) error {
	var one int
	err := q.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM notes WHERE id = ? AND user_id = ?`), noteID, ownerID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case err != nil:
		return fmt.Errorf("check note: %w", err)
	default:
		return store.ErrFolderNotFound
	}
}

func (s *Store) updateContent(ctx context.Context, q querier, noteID int64, content domain.NoteContent) error {
	var (
		result sql.Result
		err    error
	)
	switch c := content.(type) {
	case domain.TextContent:
		result, err = q.ExecContext(ctx, s.rebind(`UPDATE note_content_text SET body = ? WHERE note_id = ?`), c.Body, noteID)
	case domain.ListContent:
		var items string
		if items, err = encodeItems(c.Items); err != nil {
			return err
		}
		result, err = q.ExecContext(ctx, s.rebind(`UPDATE note_content_list SET items = ? WHERE note_id = ?`), items, noteID)
	default:
		return fmt.Errorf("unknown note content %T", content)
	}
	if err != nil {
		return fmt.Errorf("update note content: %w", err)
	}
	if err := affectedOne(result); err != nil {
		return fmt.Errorf("note %d content row missing: %w", noteID, err)
	}
	return nil
}

// DeleteNote deletes a note owned by ownerID together with its content.
// Returns store.ErrNotFound when no such note belongs to the owner.
func (s *Store) DeleteNote(ctx context.Context, id, ownerID int64) (err error) {
	defer metrics.ObserveStore("delete_note", time.Now(), &err)

	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM notes WHERE id = ? AND user_id = ?`), id, ownerID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return affectedOne(result)
}
