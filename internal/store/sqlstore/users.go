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

const userColumns = `id, username, name, password_hash, created_at, updated_at`

func scanUser(sc scanner) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
		updatedAt string
	)
	if err := sc.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user and sets its ID and timestamps.
// Returns store.ErrAlreadyExists when the username is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (err error) {
	defer metrics.ObserveStore("create_user", time.Now(), &err)

	now := time.Now().UTC()
	err = s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO users (username, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		user.Username, user.Name, user.PasswordHash, formatTime(now), formatTime(now),
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

// GetUserByUsername returns store.ErrNotFound for unknown usernames.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (user *domain.User, err error) {
	defer metrics.ObserveStore("get_user", time.Now(), &err)

	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	user, err = scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdatePassword replaces the stored hash.
func (s *Store) UpdatePassword(ctx context.Context, userID int64, passwordHash string) (err error) {
	defer metrics.ObserveStore("update_password", time.Now(), &err)

	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`),
		passwordHash, formatTime(time.Now()), userID,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return affectedOne(result)
}

// DeleteUser removes a user; folders, notes and note content go with it.
func (s *Store) DeleteUser(ctx context.Context, userID int64) (err error) {
	defer metrics.ObserveStore("delete_user", time.Now(), &err)

	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = ?`), userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return affectedOne(result)
}
