package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haritha1313/smartnotes/internal/note"
)

func sampleNote() note.Note {
	return note.Note{
		ID:        "note_1",
		Text:      "captured",
		Comment:   "remember",
		URL:       "https://example.com",
		Title:     "Example",
		Category:  "General",
		Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCreateNote(t *testing.T) {
	var gotHeaders http.Header
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/notes/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotHeaders = r.Header.Clone()
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "Note created successfully",
			"data": map[string]any{
				"note_id":     "uuid-1",
				"created_at":  "2024-03-01T10:00:00Z",
				"sync_status": "notion_synced",
				"notion_page_id": "page-9",
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, Options{
		AuthToken:        "tok",
		NotionToken:      "secret_notion",
		NotionDatabaseID: "db-1",
	})

	res, err := c.CreateNote(context.Background(), sampleNote())
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if res.NoteID != "uuid-1" || res.SyncStatus != "notion_synced" || res.NotionPageID != "page-9" {
		t.Errorf("unexpected result: %+v", res)
	}

	if got := gotHeaders.Get("Authorization"); got != "Bearer tok" {
		t.Errorf("missing bearer token, got %q", got)
	}
	if got := gotHeaders.Get("X-Notion-Token"); got != "secret_notion" {
		t.Errorf("missing notion token header, got %q", got)
	}
	if got := gotHeaders.Get("X-Notion-Database-Id"); got != "db-1" {
		t.Errorf("missing notion database header, got %q", got)
	}
	if gotBody["text"] != "captured" {
		t.Errorf("unexpected body: %v", gotBody)
	}
}

func TestCreateNoteOmitsSyncHeadersWithoutCredentials(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"note_id": "uuid-1", "sync_status": "local"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	res, err := c.CreateNote(context.Background(), sampleNote())
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if res.SyncStatus != "local" {
		t.Errorf("expected local sync status, got %q", res.SyncStatus)
	}
	if gotHeaders.Get("X-Notion-Token") != "" || gotHeaders.Get("Authorization") != "" {
		t.Error("no credential headers expected")
	}
}

func TestCreateNoteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "storage exploded"})
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	_, err := c.CreateNote(context.Background(), sampleNote())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Message != "storage exploded" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestCreateNoteNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", Options{})
	_, err := c.CreateNote(context.Background(), sampleNote())
	if err == nil {
		t.Fatal("expected network error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("network failures are not APIErrors")
	}
}

func TestUpdateNote(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/notes/uuid-1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	category := "Development"
	if err := c.UpdateNote(context.Background(), "uuid-1", nil, &category); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if gotBody["category"] != "Development" {
		t.Errorf("unexpected body: %v", gotBody)
	}
	if _, ok := gotBody["comment"]; ok {
		t.Error("nil comment must be omitted")
	}
}

func TestCategorize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/notes/categorize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"title":      "Go Channels Explained",
				"category":   "Development",
				"confidence": 0.9,
				"is_new":     false,
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	got, err := c.Categorize(context.Background(), "go channels", "", nil)
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if got.Category != "Development" || got.Title != "Go Channels Explained" {
		t.Errorf("unexpected suggestion: %+v", got)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "healthy"})
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
