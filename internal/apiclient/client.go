// Package apiclient is the capture client's HTTP client for the note
// service. Failures are reported through typed errors so the save pipeline
// can decide between authoritative and fallback persistence.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haritha1313/smartnotes/internal/note"
)

// Options carries the optional credentials attached to requests.
type Options struct {
	// AuthToken is sent as a bearer token when non-empty.
	AuthToken string
	// NotionToken and NotionDatabaseID are forwarded as sync headers on
	// note creation when both are present.
	NotionToken      string
	NotionDatabaseID string
}

// Client calls the note service.
type Client struct {
	baseURL string
	opts    Options
	client  *http.Client
}

// New builds a client for the service at baseURL.
func New(baseURL string, opts Options) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    opts,
		client:  &http.Client{},
	}
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// CreateResult is the service's answer to a note creation.
type CreateResult struct {
	NoteID       string `json:"note_id"`
	CreatedAt    string `json:"created_at"`
	SyncStatus   string `json:"sync_status"`
	NotionPageID string `json:"notion_page_id,omitempty"`
}

// CreateNote persists a note authoritatively.
func (c *Client) CreateNote(ctx context.Context, n note.Note) (*CreateResult, error) {
	body := map[string]any{
		"text":      n.Text,
		"comment":   n.Comment,
		"url":       n.URL,
		"title":     n.Title,
		"category":  n.Category,
		"timestamp": n.Timestamp.UTC().Format(time.RFC3339),
	}

	var envelope struct {
		Success bool         `json:"success"`
		Message string       `json:"message"`
		Data    CreateResult `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/notes/", true, body, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, &APIError{StatusCode: http.StatusOK, Message: envelope.Message}
	}
	return &envelope.Data, nil
}

// UpdateNote applies a comment/category patch to an existing note.
func (c *Client) UpdateNote(ctx context.Context, id string, comment, category *string) error {
	body := map[string]any{}
	if comment != nil {
		body["comment"] = *comment
	}
	if category != nil {
		body["category"] = *category
	}

	return c.do(ctx, http.MethodPut, "/api/notes/"+id, false, body, nil)
}

// Categorize asks the service for an AI title/category suggestion.
func (c *Client) Categorize(ctx context.Context, content, comment string, existing []string) (*Suggestion, error) {
	body := map[string]any{
		"content": content,
		"comment": comment,
	}
	if existing != nil {
		body["existing_categories"] = existing
	}

	var envelope struct {
		Success bool       `json:"success"`
		Message string     `json:"message"`
		Data    Suggestion `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/notes/categorize", true, body, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, &APIError{StatusCode: http.StatusOK, Message: envelope.Message}
	}
	return &envelope.Data, nil
}

// Suggestion is the categorize endpoint's payload.
type Suggestion struct {
	Title      string  `json:"title"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	IsNew      bool    `json:"is_new"`
}

// WarmCache asks the service to pre-load workspace categories.
func (c *Client) WarmCache(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notes/warm-cache", true, map[string]any{}, nil)
}

// Health checks service liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", false, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, syncHeaders bool, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.AuthToken)
	}
	if syncHeaders && c.opts.NotionToken != "" && c.opts.NotionDatabaseID != "" {
		req.Header.Set("X-Notion-Token", c.opts.NotionToken)
		req.Header.Set("X-Notion-Database-Id", c.opts.NotionDatabaseID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var parsed struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &parsed) == nil {
			if parsed.Error != "" {
				apiErr.Message = parsed.Error
			} else if parsed.Message != "" {
				apiErr.Message = parsed.Message
			}
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("malformed response body: %w", err)
		}
	}
	return nil
}
