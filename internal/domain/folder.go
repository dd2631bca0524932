package domain

import "time"

// Folder groups notes. Every folder has exactly one owner and there is no
// folder-level sharing.
type Folder struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
