package note

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// Sync status values stored on the client copy of a note. These describe
// the outcome of the most recent authoritative-save attempt; they are
// overwritten on every attempt, there is no transition table.
const (
	SyncSynced  = "synced"
	SyncPending = "pending"
	SyncFailed  = "failed"
	SyncUnknown = "unknown"
)

// Sync status values reported by the backend for the Notion mirror.
const (
	BackendSyncLocal   = "local"
	BackendSyncSynced  = "notion_synced"
	BackendSyncPending = "notion_pending"
	BackendSyncFailed  = "notion_failed"
)

// Field limits, shared by client-side sanitization and the backend API.
const (
	MaxTextLength     = 10000
	MaxCommentLength  = 2000
	MaxTitleLength    = 500
	MaxCategoryLength = 50
)

// Note is the sole persisted entity: a captured, annotated snippet of page
// text with provenance and category metadata.
type Note struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Comment      string    `json:"comment,omitempty"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Timestamp    time.Time `json:"timestamp"`
	SyncStatus   string    `json:"syncStatus,omitempty"`
	AIProcessed  bool      `json:"aiProcessed,omitempty"`
	NeedsAI      bool      `json:"needsAI,omitempty"`
	LastError    string    `json:"lastError,omitempty"`
	APINoteID    string    `json:"apiNoteId,omitempty"`
	NotionPageID string    `json:"notionPageId,omitempty"`
}

// NewID generates a client-side note identifier: capture time in unix
// milliseconds plus a random suffix. Backend-created notes use UUIDs
// instead; the two never collide.
func NewID(now time.Time, rng *rand.Rand) string {
	return fmt.Sprintf("note_%d_%06d", now.UnixMilli(), rng.Intn(1000000))
}

// FromBackendStatus maps a backend-reported sync_status onto the client's
// sync status vocabulary. An absent or unrecognized value means the backend
// never attempted (or never reported) a Notion sync.
func FromBackendStatus(s string) string {
	switch s {
	case BackendSyncSynced:
		return SyncSynced
	case BackendSyncPending:
		return SyncPending
	case BackendSyncFailed:
		return SyncFailed
	default:
		return SyncUnknown
	}
}

var (
	htmlTagRe      = regexp.MustCompile(`<[^>]*>`)
	safeCategoryRe = regexp.MustCompile(`^[a-zA-Z0-9\s\-_&.]+$`)
)

// SanitizeText strips HTML tags and clamps the result to max runes.
func SanitizeText(s string, max int) string {
	cleaned := htmlTagRe.ReplaceAllString(strings.TrimSpace(s), "")
	if r := []rune(cleaned); len(r) > max {
		return string(r[:max])
	}
	return cleaned
}

// SanitizeCategory validates a category label. Empty or unsafe labels
// collapse to General.
func SanitizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !safeCategoryRe.MatchString(s) {
		return CategoryGeneral
	}
	if r := []rune(s); len(r) > MaxCategoryLength {
		return string(r[:MaxCategoryLength])
	}
	return s
}
