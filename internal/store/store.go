// Package store holds the backend's authoritative note collection.
//
// The default implementation is in-memory and scoped to the process
// lifetime; a SQLite implementation is available when durability across
// restarts is wanted. Both are explicitly owned values handed to the
// server, never package-level state.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a note id has no record.
var ErrNotFound = errors.New("note not found")

// Pagination bounds for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 1000
)

// Record is a note as the backend stores it.
type Record struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Comment      string    `json:"comment,omitempty"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Timestamp    time.Time `json:"timestamp"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	SyncStatus   string    `json:"sync_status"`
	NotionPageID string    `json:"notion_page_id,omitempty"`
}

// Filter narrows a List call. Category is an equality match, Search is a
// substring match over text, comment, url and title. Both are
// case-insensitive.
type Filter struct {
	Category string
	Search   string
}

// Page is one page of List results.
type Page struct {
	Notes    []*Record
	Total    int
	Page     int
	PageSize int
	HasNext  bool
}

// Stats is the summary returned by the stats endpoint.
type Stats struct {
	TotalNotes  int            `json:"total_notes"`
	Categories  map[string]int `json:"categories"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Comment  *string
	Category *string
}

// Store is the authoritative note collection.
type Store interface {
	Create(rec *Record) error
	Get(id string) (*Record, error)
	List(filter Filter, page, pageSize int) (*Page, error)
	Update(id string, patch Patch) (*Record, error)
	// SetSyncStatus records the outcome of a background Notion sync.
	SetSyncStatus(id, status, notionPageID string) error
	Delete(id string) error
	Stats() (*Stats, error)
	Close() error
}

// ClampPaging normalizes page and pageSize to their allowed ranges.
func ClampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
