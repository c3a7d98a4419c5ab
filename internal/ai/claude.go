package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	claudeBaseURL      = "https://api.anthropic.com/v1/messages"
	claudeVersion      = "2023-06-01"
	claudeModel        = "claude-3-haiku-20240307"
	claudeMaxTokens    = 150
	claudeTemperature  = 0.1
	claudeMaxRetries   = 3
	claudeInitialDelay = 1 * time.Second
)

// ClaudeClient handles text generation through the Anthropic messages API.
type ClaudeClient struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	retryDelay time.Duration
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type claudeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClaudeClient creates a client for the given API key. The model
// defaults to a fast, cheap one; categorization needs no more.
func NewClaudeClient(apiKey, model string) *ClaudeClient {
	if model == "" {
		model = claudeModel
	}
	return &ClaudeClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    claudeBaseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		retryDelay: claudeInitialDelay,
	}
}

// Generate sends a single-turn prompt and returns the response text.
func (c *ClaudeClient) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("claude api key not set")
	}

	req := claudeRequest{
		Model:       c.model,
		MaxTokens:   claudeMaxTokens,
		Temperature: claudeTemperature,
		System:      systemPrompt,
		Messages:    []claudeMessage{{Role: "user", Content: prompt}},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < claudeMaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.retryDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("x-api-key", c.apiKey)
		httpReq.Header.Set("anthropic-version", claudeVersion)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr claudeError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				lastErr = fmt.Errorf("claude API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
			} else {
				lastErr = fmt.Errorf("claude API error (%d): %s", resp.StatusCode, string(respBody))
			}

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return "", lastErr
		}

		var parsed claudeResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
			return "", fmt.Errorf("empty response from claude API")
		}
		return parsed.Content[0].Text, nil
	}

	return "", fmt.Errorf("max retries (%d) exceeded: %w", claudeMaxRetries, lastErr)
}
