// Package domain holds the core types of the notes server: accounts, folders,
// notes with their typed content, and the identity of the acting user.
package domain

import "time"

// Field limits shared by validation and storage.
const (
	MaxUsernameLength = 20
	MaxNameLength     = 20
	MaxFolderName     = 20
	MaxHeadingLength  = 50
)

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the request-scoped identity for the user.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username, Name: u.Name}
}
