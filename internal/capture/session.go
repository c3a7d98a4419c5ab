package capture

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/haritha1313/smartnotes/internal/note"
	"github.com/haritha1313/smartnotes/internal/pipeline"
	"github.com/haritha1313/smartnotes/internal/relay"
)

// ErrEmptySelection means a capture was triggered without selected text.
var ErrEmptySelection = errors.New("no text selected")

// ErrSessionClosed means Save was called on a discarded session.
var ErrSessionClosed = errors.New("capture session closed")

// PlaceholderCategory marks a note that is waiting for AI enrichment.
const PlaceholderCategory = "Processing..."

// Trigger is the event that opens a capture session.
type Trigger struct {
	Text  string `json:"text"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Session collects an optional comment for one capture and submits the
// note exactly once. The second Save on the same session is a no-op,
// mirroring a disabled submit button.
type Session struct {
	trigger Trigger
	sender  *relay.Client
	useAI   bool
	logger  *slog.Logger

	now func() time.Time
	rng *rand.Rand

	mu        sync.Mutex
	submitted bool
	closed    bool
}

// SessionConfig tunes a new session.
type SessionConfig struct {
	// UseAI defers the category to enrichment instead of the domain
	// heuristic.
	UseAI  bool
	Logger *slog.Logger
}

// NewSession validates the trigger and opens a session. An empty
// selection aborts before any surface is shown.
func NewSession(trigger Trigger, sender *relay.Client, cfg SessionConfig) (*Session, error) {
	if trigger.Text == "" {
		return nil, ErrEmptySelection
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		trigger: trigger,
		sender:  sender,
		useAI:   cfg.UseAI,
		logger:  logger,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Note builds the note this session would submit, with a provisional
// category: the domain heuristic when AI is off, a placeholder otherwise.
func (s *Session) Note(comment string) note.Note {
	n := note.Note{
		ID:        note.NewID(s.now(), s.rng),
		Text:      s.trigger.Text,
		Comment:   comment,
		URL:       s.trigger.URL,
		Title:     s.trigger.Title,
		Timestamp: s.now().UTC(),
	}

	if s.useAI {
		n.Category = PlaceholderCategory
		n.NeedsAI = true
	} else {
		n.Category = note.CategoryForURL(s.trigger.URL)
	}
	return n
}

// Save submits the note through the relay. The acknowledgment is
// optimistic: the caller may report success to the user as soon as Save
// returns the note, while the relay response arrives asynchronously via
// the returned channel.
func (s *Session) Save(ctx context.Context, comment string) (note.Note, <-chan *pipeline.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return note.Note{}, nil, ErrSessionClosed
	}
	if s.submitted {
		s.mu.Unlock()
		// Closed so a caller that still receives gets a nil result
		// instead of blocking forever.
		done := make(chan *pipeline.Result)
		close(done)
		return note.Note{}, done, nil
	}
	s.submitted = true
	s.mu.Unlock()

	n := s.Note(comment)

	results := make(chan *pipeline.Result, 1)
	go func() {
		defer close(results)
		var res pipeline.Result
		if err := s.sender.Send(ctx, "saveNote", map[string]any{"note": n}, &res); err != nil {
			s.logger.Error("save failed", "note", n.ID, "error", err)
			results <- &pipeline.Result{Success: false, Message: err.Error()}
			return
		}
		results <- &res
	}()

	return n, results, nil
}

// Close discards the session with no side effects.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
