// Package pipeline persists captured notes: authoritative save through the
// note service first, local fallback when the service is unreachable, and
// a local mirror in every case. The user-visible write only fails when the
// local mirror itself cannot be written.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/haritha1313/smartnotes/internal/apiclient"
	"github.com/haritha1313/smartnotes/internal/note"
)

// Save methods reported in results.
const (
	MethodAPI   = "api"
	MethodLocal = "local"
)

// API is the slice of the service client the pipeline uses.
type API interface {
	CreateNote(ctx context.Context, n note.Note) (*apiclient.CreateResult, error)
	UpdateNote(ctx context.Context, id string, comment, category *string) error
	Categorize(ctx context.Context, content, comment string, existing []string) (*apiclient.Suggestion, error)
}

// LocalStore is the slice of the local store the pipeline uses.
type LocalStore interface {
	Add(n note.Note) error
	Patch(id string, fn func(*note.Note)) (note.Note, error)
}

// Result reports the outcome of a save or update.
type Result struct {
	Success      bool   `json:"success"`
	Method       string `json:"method,omitempty"`
	SyncStatus   string `json:"syncStatus,omitempty"`
	Message      string `json:"message,omitempty"`
	NoteID       string `json:"noteId,omitempty"`
	APINoteID    string `json:"apiNoteId,omitempty"`
	NotionPageID string `json:"notionPageId,omitempty"`

	// NeedsAI reports that the stored note still owes enrichment, so the
	// caller can schedule a deferred categorize pass.
	NeedsAI bool `json:"needsAI,omitempty"`
}

// Pipeline owns the dual-write flow.
type Pipeline struct {
	api    API
	local  LocalStore
	logger *slog.Logger
}

// New builds a pipeline. A nil logger means slog.Default().
func New(api API, local LocalStore, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{api: api, local: local, logger: logger}
}

// Save persists a captured note.
//
// When the note still owes enrichment, the categorize call runs first;
// its failure is never fatal. The authoritative save is then attempted,
// and the note is mirrored locally whichever way that went. Only a local
// mirror failure produces Success == false.
func (p *Pipeline) Save(ctx context.Context, n note.Note) (*Result, error) {
	if n.NeedsAI {
		n = p.enrich(ctx, n)
	}

	created, apiErr := p.api.CreateNote(ctx, n)
	if apiErr == nil {
		n.SyncStatus = note.FromBackendStatus(created.SyncStatus)
		n.APINoteID = created.NoteID
		n.NotionPageID = created.NotionPageID
		n.LastError = ""

		if err := p.local.Add(n); err != nil {
			p.logger.Error("local mirror failed after api save", "note", n.ID, "error", err)
			return &Result{Success: false, Message: "failed to store note locally"}, err
		}

		return &Result{
			Success:      true,
			Method:       MethodAPI,
			SyncStatus:   n.SyncStatus,
			Message:      "note saved",
			NoteID:       n.ID,
			APINoteID:    n.APINoteID,
			NotionPageID: n.NotionPageID,
			NeedsAI:      n.NeedsAI,
		}, nil
	}

	p.logger.Warn("authoritative save failed, falling back to local", "note", n.ID, "error", apiErr)

	n.SyncStatus = note.SyncPending
	n.LastError = apiErr.Error()

	if err := p.local.Add(n); err != nil {
		p.logger.Error("local fallback failed", "note", n.ID, "error", err)
		return &Result{Success: false, Message: "failed to store note locally"}, err
	}

	return &Result{
		Success:    true,
		Method:     MethodLocal,
		SyncStatus: note.SyncPending,
		Message:    "note saved locally, sync pending",
		NoteID:     n.ID,
		NeedsAI:    n.NeedsAI,
	}, nil
}

// enrich runs the categorize call and folds the suggestion into the note.
// Any failure leaves the note untouched apart from logging.
func (p *Pipeline) enrich(ctx context.Context, n note.Note) note.Note {
	suggestion, err := p.api.Categorize(ctx, n.Text, n.Comment, nil)
	if err != nil {
		p.logger.Warn("enrichment failed, keeping original note", "note", n.ID, "error", err)
		return n
	}
	if suggestion.Category == "" {
		p.logger.Warn("enrichment returned empty category, keeping original note", "note", n.ID)
		return n
	}

	if suggestion.Title != "" {
		n.Title = suggestion.Title
	}
	n.Category = suggestion.Category
	n.AIProcessed = true
	n.NeedsAI = false
	return n
}

// Update patches the local copy of a note and propagates the same patch to
// the service best-effort. Used by the enrichment-after-save path.
type Patch struct {
	Title    *string
	Category *string
	Comment  *string
}

func (p *Pipeline) Update(ctx context.Context, id string, patch Patch) (*Result, error) {
	updated, err := p.local.Patch(id, func(n *note.Note) {
		if patch.Title != nil {
			n.Title = *patch.Title
		}
		if patch.Category != nil {
			n.Category = *patch.Category
		}
		if patch.Comment != nil {
			n.Comment = *patch.Comment
		}
		n.AIProcessed = true
		n.NeedsAI = false
	})
	if err != nil {
		return &Result{Success: false, Message: "note not found locally"}, err
	}

	if updated.APINoteID != "" {
		if err := p.api.UpdateNote(ctx, updated.APINoteID, patch.Comment, patch.Category); err != nil {
			// The local copy already holds the patch; backend drift is
			// surfaced through the sync status indicator, not an error.
			p.logger.Warn("backend update failed", "note", id, "error", err)
		}
	}

	return &Result{
		Success:      true,
		SyncStatus:   updated.SyncStatus,
		NoteID:       updated.ID,
		APINoteID:    updated.APINoteID,
		NotionPageID: updated.NotionPageID,
	}, nil
}
