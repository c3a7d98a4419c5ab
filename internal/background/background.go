// Package background wires the save pipeline, the backend client, and the
// selection tracker into one message dispatch table, the way the service
// worker side of the capture client is assembled.
package background

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/haritha1313/smartnotes/internal/apiclient"
	"github.com/haritha1313/smartnotes/internal/capture"
	"github.com/haritha1313/smartnotes/internal/note"
	"github.com/haritha1313/smartnotes/internal/pipeline"
	"github.com/haritha1313/smartnotes/internal/relay"
)

// Saver is the slice of the pipeline the dispatch table needs.
type Saver interface {
	Save(ctx context.Context, n note.Note) (*pipeline.Result, error)
	Update(ctx context.Context, id string, patch pipeline.Patch) (*pipeline.Result, error)
}

// Backend is the slice of the API client the dispatch table needs.
type Backend interface {
	Categorize(ctx context.Context, content, comment string, existing []string) (*apiclient.Suggestion, error)
	WarmCache(ctx context.Context) error
}

// Worker owns the background context's handlers.
type Worker struct {
	saver   Saver
	backend Backend
	tracker *capture.SelectionTracker
	logger  *slog.Logger

	// openModal is invoked for showModal requests; the capture surface
	// lives in the content context, so the worker only forwards.
	openModal func(capture.Trigger) error

	// pending tracks in-flight deferred enrichment goroutines so tests
	// and shutdown can wait for them.
	pending sync.WaitGroup
}

// Config assembles a Worker.
type Config struct {
	Saver     Saver
	Backend   Backend
	Tracker   *capture.SelectionTracker
	OpenModal func(capture.Trigger) error
	Logger    *slog.Logger
}

// New builds the worker and registers its dispatch table on the bus.
func New(bus *relay.Bus, cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		saver:     cfg.Saver,
		backend:   cfg.Backend,
		tracker:   cfg.Tracker,
		openModal: cfg.OpenModal,
		logger:    logger,
	}

	bus.Register("getSelectedText", w.handleGetSelectedText)
	bus.Register("showModal", w.handleShowModal)
	bus.Register("saveNote", w.handleSaveNote)
	bus.Register("categorizeContent", w.handleCategorize)
	bus.Register("warmCache", w.handleWarmCache)
	bus.Register("updateNoteWithAI", w.handleUpdateNote)

	return w
}

// Wait blocks until all deferred enrichment work has drained.
func (w *Worker) Wait() {
	w.pending.Wait()
}

func (w *Worker) handleGetSelectedText(ctx context.Context, msg relay.Message) (any, error) {
	if w.tracker == nil {
		return capture.Trigger{}, nil
	}
	return w.tracker.Current(nil), nil
}

func (w *Worker) handleShowModal(ctx context.Context, msg relay.Message) (any, error) {
	if w.openModal == nil {
		return nil, fmt.Errorf("no capture surface attached")
	}
	var trigger capture.Trigger
	if err := json.Unmarshal(msg.Payload, &trigger); err != nil {
		return nil, fmt.Errorf("bad showModal payload: %w", err)
	}
	if err := w.openModal(trigger); err != nil {
		return nil, err
	}
	return nil, nil
}

func (w *Worker) handleSaveNote(ctx context.Context, msg relay.Message) (any, error) {
	var payload struct {
		Note note.Note `json:"note"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("bad saveNote payload: %w", err)
	}

	res, err := w.saver.Save(ctx, payload.Note)
	if err != nil {
		return nil, err
	}

	if res.NeedsAI {
		w.scheduleEnrichment(payload.Note)
	}
	return res, nil
}

// scheduleEnrichment retries categorization for a note that was saved with
// a placeholder category, then patches it through the pipeline.
func (w *Worker) scheduleEnrichment(n note.Note) {
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()

		ctx := context.Background()
		suggestion, err := w.backend.Categorize(ctx, n.Text, n.Comment, nil)
		if err != nil {
			w.logger.Warn("deferred enrichment failed", "note", n.ID, "error", err)
			return
		}
		if suggestion.Category == "" {
			return
		}

		patch := pipeline.Patch{Category: &suggestion.Category}
		if suggestion.Title != "" {
			patch.Title = &suggestion.Title
		}
		if _, err := w.saver.Update(ctx, n.ID, patch); err != nil {
			w.logger.Warn("deferred enrichment update failed", "note", n.ID, "error", err)
		}
	}()
}

func (w *Worker) handleCategorize(ctx context.Context, msg relay.Message) (any, error) {
	var payload struct {
		Content    string   `json:"content"`
		Comment    string   `json:"comment"`
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("bad categorizeContent payload: %w", err)
	}
	return w.backend.Categorize(ctx, payload.Content, payload.Comment, payload.Categories)
}

func (w *Worker) handleWarmCache(ctx context.Context, msg relay.Message) (any, error) {
	if err := w.backend.WarmCache(ctx); err != nil {
		return nil, err
	}
	return map[string]string{"status": "warming"}, nil
}

func (w *Worker) handleUpdateNote(ctx context.Context, msg relay.Message) (any, error) {
	var payload struct {
		NoteID   string  `json:"noteId"`
		Title    *string `json:"title,omitempty"`
		Category *string `json:"category,omitempty"`
		Comment  *string `json:"comment,omitempty"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("bad updateNoteWithAI payload: %w", err)
	}
	if payload.NoteID == "" {
		return nil, fmt.Errorf("updateNoteWithAI requires a noteId")
	}
	return w.saver.Update(ctx, payload.NoteID, pipeline.Patch{
		Title:    payload.Title,
		Category: payload.Category,
		Comment:  payload.Comment,
	})
}
