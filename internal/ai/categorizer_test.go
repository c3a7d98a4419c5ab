package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestSuggestParsesModelResponse(t *testing.T) {
	llm := &fakeLLM{response: `Title: Go Generics Tutorial
Category: Development
Confidence: 0.9
Reasoning: Programming content maps to the existing Development category`}

	c := NewCategorizer(llm, nil)
	got := c.Suggest(context.Background(), "a deep dive into go generics", "", []string{"General", "Development"})

	if got.Category != "Development" {
		t.Errorf("expected Development, got %q", got.Category)
	}
	if got.Title != "Go Generics Tutorial" {
		t.Errorf("unexpected title %q", got.Title)
	}
	if got.Confidence != 0.9 {
		t.Errorf("unexpected confidence %v", got.Confidence)
	}
	if got.IsNew {
		t.Error("existing category must not be flagged new")
	}
}

func TestSuggestFallsBackOnModelError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("api down")}

	c := NewCategorizer(llm, nil)
	got := c.Suggest(context.Background(), "refactoring the programming codebase with git", "", []string{"Development"})

	if got.Category != "Development" {
		t.Errorf("keyword fallback should pick Development, got %q", got.Category)
	}
	if got.Reasoning == "" {
		t.Error("fallback suggestion should carry its reasoning")
	}
}

func TestSuggestWithoutModel(t *testing.T) {
	c := NewCategorizer(nil, nil)
	got := c.Suggest(context.Background(), "some text", "", nil)

	if got.Category != "General" {
		t.Errorf("expected General with no model and no categories, got %q", got.Category)
	}
	if got.Confidence != 0.4 {
		t.Errorf("expected default confidence 0.4, got %v", got.Confidence)
	}
}

func TestSuggestCaching(t *testing.T) {
	llm := &fakeLLM{response: "Title: T\nCategory: General\nConfidence: 0.8"}
	c := NewCategorizer(llm, nil)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Suggest(context.Background(), "same content", "note", []string{"General"})
	c.Suggest(context.Background(), "same content", "note", []string{"General"})
	if llm.calls != 1 {
		t.Errorf("second identical call should hit the cache, got %d model calls", llm.calls)
	}

	// Normalized whitespace and case share a cache entry.
	c.Suggest(context.Background(), "  SAME   content ", "NOTE", []string{"general"})
	if llm.calls != 1 {
		t.Errorf("normalized content should hit the cache, got %d model calls", llm.calls)
	}

	// Expiry forces a refresh.
	now = now.Add(suggestionCacheTTL + time.Minute)
	c.Suggest(context.Background(), "same content", "note", []string{"General"})
	if llm.calls != 2 {
		t.Errorf("expired entry should refetch, got %d model calls", llm.calls)
	}
}

func TestSuggestCacheEvictsStaleEntries(t *testing.T) {
	llm := &fakeLLM{response: "Title: T\nCategory: General\nConfidence: 0.8"}
	c := NewCategorizer(llm, nil)

	now := time.Now()
	c.now = func() time.Time { return now }

	// Distinct contents each take a cache slot.
	c.Suggest(context.Background(), "first snippet", "", []string{"General"})
	c.Suggest(context.Background(), "second snippet", "", []string{"General"})
	c.Suggest(context.Background(), "third snippet", "", []string{"General"})

	c.mu.Lock()
	size := len(c.cache)
	c.mu.Unlock()
	if size != 3 {
		t.Fatalf("expected 3 cached entries, got %d", size)
	}

	// Once everything expired, the next insert sweeps the old keys even
	// though they are never looked up again.
	now = now.Add(suggestionCacheTTL + time.Minute)
	c.Suggest(context.Background(), "fourth snippet", "", []string{"General"})

	c.mu.Lock()
	size = len(c.cache)
	c.mu.Unlock()
	if size != 1 {
		t.Errorf("expected stale entries to be swept, cache holds %d", size)
	}
}

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		existing     []string
		wantCategory string
		wantIsNew    bool
		wantConf     float64
	}{
		{
			name:         "snaps near duplicate onto existing",
			response:     "Title: X\nCategory: Software Development\nConfidence: 0.8",
			existing:     []string{"Development"},
			wantCategory: "Development",
			wantIsNew:    false,
			wantConf:     0.8,
		},
		{
			name:         "new category allowed",
			response:     "Title: Pasta\nCategory: Cooking\nConfidence: 0.7",
			existing:     []string{"Development", "General"},
			wantCategory: "Cooking",
			wantIsNew:    true,
			wantConf:     0.7,
		},
		{
			name:         "unparseable falls back to general",
			response:     "no structure at all",
			existing:     []string{"Development"},
			wantCategory: "General",
			wantIsNew:    true,
			wantConf:     0.5,
		},
		{
			name:         "confidence clamped",
			response:     "Title: X\nCategory: General\nConfidence: 1.7",
			existing:     []string{"General"},
			wantCategory: "General",
			wantIsNew:    false,
			wantConf:     1,
		},
		{
			name:         "blog maps to articles",
			response:     "Title: X\nCategory: Blog Post\nConfidence: 0.8",
			existing:     []string{"Articles"},
			wantCategory: "Articles",
			wantIsNew:    false,
			wantConf:     0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSuggestion(tt.response, tt.existing)
			if got.Category != tt.wantCategory {
				t.Errorf("category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.IsNew != tt.wantIsNew {
				t.Errorf("isNew = %v, want %v", got.IsNew, tt.wantIsNew)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestKeywordFallbackTitle(t *testing.T) {
	got := keywordFallback("building a small web service in go", "", []string{"Development"})
	if got.Title != "Building A Small Web" {
		t.Errorf("unexpected title %q", got.Title)
	}

	got = keywordFallback("", "", nil)
	if got.Title != "Saved Content" {
		t.Errorf("empty content should yield placeholder title, got %q", got.Title)
	}
}

type fakeSource struct {
	categories []string
	err        error
	calls      int
}

func (f *fakeSource) ListCategories(ctx context.Context, databaseID string) ([]string, error) {
	f.calls++
	return f.categories, f.err
}

func TestCategoryCache(t *testing.T) {
	src := &fakeSource{categories: []string{"General", "Research"}}
	cache := NewCategoryCache(nil)

	now := time.Now()
	cache.now = func() time.Time { return now }

	got, err := cache.Fetch(context.Background(), src, "db-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected categories: %v", got)
	}

	cache.Fetch(context.Background(), src, "db-1")
	if src.calls != 1 {
		t.Errorf("cached fetch should not call source, got %d calls", src.calls)
	}

	now = now.Add(categoryCacheTTL + time.Minute)
	cache.Fetch(context.Background(), src, "db-1")
	if src.calls != 2 {
		t.Errorf("expired cache should refetch, got %d calls", src.calls)
	}

	cache.Clear("db-1")
	cache.Fetch(context.Background(), src, "db-1")
	if src.calls != 3 {
		t.Errorf("cleared cache should refetch, got %d calls", src.calls)
	}
}

func TestCategoryCacheError(t *testing.T) {
	src := &fakeSource{err: errors.New("api down")}
	cache := NewCategoryCache(nil)

	if _, err := cache.Fetch(context.Background(), src, "db-1"); err == nil {
		t.Error("source errors must propagate")
	}
}
