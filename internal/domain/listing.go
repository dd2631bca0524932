package domain

import "strings"

// SortDirection orders a listing column.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Listing limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// NoteListOptions controls ordering and paging of note listings.
type NoteListOptions struct {
	Shared  SortDirection `json:"shared" validate:"omitempty,oneof=ASC DESC"`
	Heading SortDirection `json:"heading" validate:"omitempty,oneof=ASC DESC"`
	Offset  int           `json:"offset" validate:"gte=0"`
	Limit   int           `json:"limit" validate:"gte=0,lte=100"`
}

// Normalize upper-cases directions and applies the default limit.
func (o NoteListOptions) Normalize() NoteListOptions {
	o.Shared = SortDirection(strings.ToUpper(strings.TrimSpace(string(o.Shared))))
	o.Heading = SortDirection(strings.ToUpper(strings.TrimSpace(string(o.Heading))))
	if o.Limit == 0 {
		o.Limit = DefaultListLimit
	}
	return o
}
