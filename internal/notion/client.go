// Package notion is a minimal client for the Notion REST API, covering the
// operations the note service needs: creating pages in the Research Notes
// database and reading its Category select options.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"

	maxRetries   = 3
	initialDelay = 1 * time.Second

	// Notion allows an average of 3 requests per second per integration.
	requestsPerSecond = 3

	maxPageTextLength    = 2000
	maxPageCommentLength = 500
	pageTitleLength      = 100
)

// Error is a failure reported by (or while reaching) the Notion API.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("notion: %s", e.Message)
	}
	return fmt.Sprintf("notion: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Client talks to the Notion API on behalf of one integration token.
type Client struct {
	token      string
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	retryDelay time.Duration
}

// NewClient validates the token and builds a client. Tokens shorter than
// ten characters are rejected outright rather than burning an API call.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("notion token is required")
	}
	if len(token) < 10 {
		return nil, fmt.Errorf("invalid notion token format")
	}

	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		client:     &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		retryDelay: initialDelay,
	}, nil
}

// PageInput is the note content mirrored into a Notion page.
type PageInput struct {
	Text      string
	Comment   string
	URL       string
	Title     string
	Category  string
	Timestamp time.Time
}

// CreatePage creates a page in the given database and returns its id.
func (c *Client) CreatePage(ctx context.Context, databaseID string, input PageInput) (string, error) {
	if input.Text == "" || input.URL == "" || input.Title == "" {
		return "", &Error{Message: "missing required field for notion page"}
	}

	text := clamp(input.Text, maxPageTextLength)
	comment := clamp(input.Comment, maxPageCommentLength)

	pageTitle := clamp(strings.TrimSpace(text), pageTitleLength)
	if len([]rune(text)) > pageTitleLength {
		pageTitle += "..."
	}

	category := input.Category
	if category == "" {
		category = "General"
	}
	captured := input.Timestamp
	if captured.IsZero() {
		captured = time.Now().UTC()
	}

	properties := map[string]any{
		"Title":    map[string]any{"title": richText(pageTitle)},
		"Content":  map[string]any{"rich_text": richText(text)},
		"Source":   map[string]any{"url": input.URL},
		"Captured": map[string]any{"date": map[string]any{"start": captured.Format(time.RFC3339)}},
		"Category": map[string]any{"select": map[string]any{"name": category}},
		"Status":   map[string]any{"select": map[string]any{"name": "New"}},
	}
	if comment != "" {
		properties["Comment"] = map[string]any{"rich_text": richText(comment)}
	}

	body := map[string]any{
		"parent":     map[string]any{"database_id": databaseID},
		"properties": properties,
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/pages", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ListCategories reads the Category select options from the database
// schema. A database without a Category select property yields the
// General-only default.
func (c *Client) ListCategories(ctx context.Context, databaseID string) ([]string, error) {
	var resp struct {
		Properties map[string]struct {
			Type   string `json:"type"`
			Select struct {
				Options []struct {
					Name string `json:"name"`
				} `json:"options"`
			} `json:"select"`
		} `json:"properties"`
	}

	if err := c.do(ctx, http.MethodGet, "/databases/"+databaseID, nil, &resp); err != nil {
		return nil, err
	}

	prop, ok := resp.Properties["Category"]
	if !ok || prop.Type != "select" {
		return []string{"General"}, nil
	}

	var categories []string
	for _, opt := range prop.Select.Options {
		if name := strings.TrimSpace(opt.Name); name != "" {
			categories = append(categories, name)
		}
	}
	if len(categories) == 0 {
		categories = []string{"General"}
	}
	return categories, nil
}

// Me verifies that the token works.
func (c *Client) Me(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/users/me", nil, nil)
}

// Database is a database shared with the integration.
type Database struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListDatabases searches the workspace for databases the token can reach.
func (c *Client) ListDatabases(ctx context.Context) ([]Database, error) {
	body := map[string]any{
		"filter":    map[string]string{"property": "object", "value": "database"},
		"page_size": 100,
	}

	var resp struct {
		Results []struct {
			ID    string `json:"id"`
			Title []struct {
				PlainText string `json:"plain_text"`
			} `json:"title"`
		} `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/search", body, &resp); err != nil {
		return nil, err
	}

	databases := make([]Database, 0, len(resp.Results))
	for _, r := range resp.Results {
		var title strings.Builder
		for _, t := range r.Title {
			title.WriteString(t.PlainText)
		}
		name := strings.TrimSpace(title.String())
		if name == "" {
			name = "Untitled"
		}
		databases = append(databases, Database{ID: r.ID, Title: name})
	}
	return databases, nil
}

// do issues a rate-limited request with retry on timeouts, 429 and 5xx.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal notion request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.retryDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("failed to create notion request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", apiVersion)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = &Error{Message: err.Error()}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = &Error{Message: "failed to read response body: " + err.Error()}
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := &Error{StatusCode: resp.StatusCode, Message: string(respBody)}
			var parsed struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			}
			if json.Unmarshal(respBody, &parsed) == nil && parsed.Message != "" {
				apiErr.Code = parsed.Code
				apiErr.Message = parsed.Message
			}
			lastErr = apiErr

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return apiErr
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to decode notion response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("notion: max retries (%d) exceeded: %w", maxRetries, lastErr)
}

func clamp(s string, max int) string {
	if r := []rune(s); len(r) > max {
		return string(r[:max])
	}
	return s
}

func richText(content string) []map[string]any {
	return []map[string]any{{"text": map[string]any{"content": content}}}
}

// PageURL derives the public page URL from a page id.
func PageURL(pageID string) string {
	return "https://notion.so/" + strings.ReplaceAll(pageID, "-", "")
}
