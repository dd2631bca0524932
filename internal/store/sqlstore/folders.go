package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/foldernotes/notes-server/internal/domain"
	"github.com/foldernotes/notes-server/internal/metrics"
	"github.com/foldernotes/notes-server/internal/store"
)

const folderColumns = `id, name, user_id, created_at, updated_at`

func scanFolder(sc scanner) (*domain.Folder, error) {
	var (
		f         domain.Folder
		createdAt string
		updatedAt string
	)
	if err := sc.Scan(&f.ID, &f.Name, &f.OwnerID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFolder inserts a folder and sets its ID and timestamps.
func (s *Store) CreateFolder(ctx context.Context, folder *domain.Folder) (err error) {
	defer metrics.ObserveStore("create_folder", time.Now(), &err)

	now := time.Now().UTC()
	err = s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO folders (name, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		folder.Name, folder.OwnerID, formatTime(now), formatTime(now),
	).Scan(&folder.ID)
	if err != nil {
		return fmt.Errorf("insert folder: %w", err)
	}

	folder.CreatedAt, folder.UpdatedAt = now, now
	return nil
}

// GetFolder returns store.ErrNotFound for unknown ids. Ownership is the
// caller's decision.
func (s *Store) GetFolder(ctx context.Context, id int64) (folder *domain.Folder, err error) {
	defer metrics.ObserveStore("get_folder", time.Now(), &err)

	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+folderColumns+` FROM folders WHERE id = ?`), id)
	folder, err = scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

// ListFolders returns the owner's folders in creation order.
func (s *Store) ListFolders(ctx context.Context, ownerID int64) (folders []*domain.Folder, err error) {
	defer metrics.ObserveStore("list_folders", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+folderColumns+` FROM folders WHERE user_id = ? ORDER BY id`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	folders = []*domain.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return folders, nil
}

// UpdateFolder renames a folder owned by ownerID.
// Returns store.ErrNotFound when no such folder belongs to the owner.
func (s *Store) UpdateFolder(ctx context.Context, id, ownerID int64, name string) (err error) {
	defer metrics.ObserveStore("update_folder", time.Now(), &err)

	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE folders SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		name, formatTime(time.Now()), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	return affectedOne(result)
}

// DeleteFolder deletes a folder owned by ownerID together with its notes.
// Returns store.ErrNotFound when no such folder belongs to the owner.
func (s *Store) DeleteFolder(ctx context.Context, id, ownerID int64) (err error) {
	defer metrics.ObserveStore("delete_folder", time.Now(), &err)

	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM folders WHERE id = ? AND user_id = ?`), id, ownerID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return affectedOne(result)
}
