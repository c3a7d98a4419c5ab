package note

import (
	"math/rand"
	"strings"
	"testing"
	"time"
)

func TestNewID(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(1))

	id1 := NewID(now, rng)
	id2 := NewID(now, rng)

	if !strings.HasPrefix(id1, "note_1709294400000_") {
		t.Errorf("unexpected id format: %s", id1)
	}
	if id1 == id2 {
		t.Errorf("ids from the same instant should still differ: %s", id1)
	}
}

func TestCategoryForURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"github", "https://github.com/x", CategoryDevelopment},
		{"github subdomain", "https://docs.github.com/en/actions", CategoryDevelopment},
		{"github www", "https://www.github.com/x", CategoryDevelopment},
		{"arxiv", "https://arxiv.org/abs/2403.1", CategoryResearch},
		{"hacker news", "https://news.ycombinator.com/item?id=1", CategoryTechNews},
		{"medium", "https://medium.com/@a/post", CategoryArticles},
		{"wikipedia localized", "https://en.wikipedia.org/wiki/Go", CategoryReference},
		{"reddit", "https://reddit.com/r/golang", CategoryDiscussion},
		{"unknown host", "https://example.com/page", CategoryGeneral},
		{"not a url", "::::", CategoryGeneral},
		{"empty", "", CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryForURL(tt.url); got != tt.want {
				t.Errorf("CategoryForURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestFromBackendStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{BackendSyncSynced, SyncSynced},
		{BackendSyncPending, SyncPending},
		{BackendSyncFailed, SyncFailed},
		{BackendSyncLocal, SyncUnknown},
		{"", SyncUnknown},
		{"garbage", SyncUnknown},
	}

	for _, tt := range tests {
		if got := FromBackendStatus(tt.in); got != tt.want {
			t.Errorf("FromBackendStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"plain", "hello world", 100, "hello world"},
		{"strips tags", "<b>bold</b> text", 100, "bold text"},
		{"only tags", "<script></script>", 100, ""},
		{"trims", "  padded  ", 100, "padded"},
		{"clamps", "abcdef", 3, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeText(tt.in, tt.max); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeCategory(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid", "Tech News", "Tech News"},
		{"empty", "", CategoryGeneral},
		{"unsafe chars", "cat<script>", CategoryGeneral},
		{"trimmed", " Research ", "Research"},
		{"too long", strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeCategory(tt.in); got != tt.want {
				t.Errorf("SanitizeCategory(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
