// Package ai suggests a category and short title for captured content,
// using the Claude API when configured and a keyword heuristic otherwise.
package ai

import (
	"context"
	"crypto/md5"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

const (
	suggestionCacheTTL = 30 * time.Minute
	maxPromptContent   = 1000
)

// Suggestion is a proposed title and category for captured content.
type Suggestion struct {
	Title      string  `json:"title"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	IsNew      bool    `json:"is_new"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// TextGenerator is the LLM dependency of the categorizer.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Categorizer produces category suggestions. Identical content within the
// cache TTL yields the cached suggestion without a model call.
type Categorizer struct {
	llm    TextGenerator
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]cachedSuggestion
	now   func() time.Time
}

type cachedSuggestion struct {
	suggestion Suggestion
	expires    time.Time
}

// NewCategorizer builds a categorizer. A nil llm means keyword fallback
// only; a nil logger means slog.Default().
func NewCategorizer(llm TextGenerator, logger *slog.Logger) *Categorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Categorizer{
		llm:    llm,
		logger: logger,
		cache:  make(map[string]cachedSuggestion),
		now:    time.Now,
	}
}

// Suggest returns a category suggestion for the content. It never returns
// an error: any model failure degrades to the keyword fallback.
func (c *Categorizer) Suggest(ctx context.Context, content, comment string, existing []string) Suggestion {
	key := cacheKey(content, comment, existing)

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && c.now().Before(entry.expires) {
		c.mu.Unlock()
		c.logger.Debug("using cached suggestion", "category", entry.suggestion.Category)
		return entry.suggestion
	}
	delete(c.cache, key)
	c.mu.Unlock()

	var suggestion Suggestion
	var fromModel bool
	if c.llm != nil {
		resp, err := c.llm.Generate(ctx, categorizeSystemPrompt, buildPrompt(content, comment, existing))
		if err != nil {
			c.logger.Warn("model categorization failed, using keyword fallback", "error", err)
		} else {
			suggestion = parseSuggestion(resp, existing)
			fromModel = true
		}
	}
	if !fromModel {
		suggestion = keywordFallback(content, comment, existing)
	}

	c.mu.Lock()
	now := c.now()
	// Evict everything stale while we hold the lock, so keys that are
	// never looked up again cannot accumulate.
	for k, entry := range c.cache {
		if !now.Before(entry.expires) {
			delete(c.cache, k)
		}
	}
	c.cache[key] = cachedSuggestion{suggestion: suggestion, expires: now.Add(suggestionCacheTTL)}
	c.mu.Unlock()

	return suggestion
}

const categorizeSystemPrompt = "You are a helpful assistant that categorizes content accurately and concisely. Follow the format exactly."

func buildPrompt(content, comment string, existing []string) string {
	if r := []rune(content); len(r) > maxPromptContent {
		content = string(r[:maxPromptContent]) + "..."
	}

	existingStr := "None"
	if len(existing) > 0 {
		existingStr = strings.Join(existing, ", ")
	}

	return fmt.Sprintf(`You should STRONGLY PREFER existing categories, but can create new ones if content truly doesn't fit.

Content: %s

User Comment: %s

EXISTING CATEGORIES (prefer these): %s

DECISION PROCESS:
1. FIRST: Try to match content to existing categories (strongly preferred)
2. ONLY IF no existing category fits well: create a new descriptive category
3. Use high confidence (0.8+) for existing categories that fit
4. Use lower confidence (0.6-0.7) when creating new categories

Respond EXACTLY in this format:
Title: [3-5 word title summarizing the content]
Category: [existing category name OR new descriptive category]
Confidence: [0.0-1.0, higher for existing categories]
Reasoning: [why you chose existing category OR why new category was needed]`, content, comment, existingStr)
}

var (
	titleLineRe      = regexp.MustCompile(`(?i)Title:\s*(.+)`)
	categoryLineRe   = regexp.MustCompile(`(?i)Category:\s*(.+)`)
	confidenceLineRe = regexp.MustCompile(`(?i)Confidence:\s*([\d.]+)`)
	reasoningLineRe  = regexp.MustCompile(`(?i)Reasoning:\s*(.+)`)
	categoryCharsRe  = regexp.MustCompile(`[^\w\s&.-]`)
)

// parseSuggestion extracts the structured fields from the model reply. A
// reply that cannot be parsed at all degrades to a low-confidence General.
func parseSuggestion(response string, existing []string) Suggestion {
	title := ""
	if m := titleLineRe.FindStringSubmatch(response); m != nil {
		title = strings.Trim(strings.TrimSpace(m[1]), `"'`)
	}

	category := "General"
	if m := categoryLineRe.FindStringSubmatch(response); m != nil {
		category = strings.TrimSpace(m[1])
	}

	confidence := 0.5
	if m := confidenceLineRe.FindStringSubmatch(response); m != nil {
		if v, err := parseFloat(m[1]); err == nil {
			confidence = v
		}
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	reasoning := ""
	if m := reasoningLineRe.FindStringSubmatch(response); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}

	// Snap near-duplicate labels onto an existing category so the model
	// proposing "Software Development" does not fork "Development".
	if match := matchExisting(category, existing); match != "" {
		category = match
	}

	category = strings.Trim(category, `"'`)
	category = categoryCharsRe.ReplaceAllString(category, "")
	category = strings.Join(strings.Fields(category), " ")

	isNew := !containsFold(existing, category)
	if category == "" || len(category) > 50 {
		category = "General"
		isNew = false
		confidence = 0.3
	}

	return Suggestion{
		Title:      title,
		Category:   category,
		Confidence: confidence,
		IsNew:      isNew,
		Reasoning:  reasoning,
	}
}

// matchExisting finds the existing category a proposed label should
// collapse into, or "" when the label is genuinely new.
func matchExisting(proposed string, existing []string) string {
	lower := strings.ToLower(proposed)
	stems := []string{"research", "development", "article"}

	for _, cat := range existing {
		catLower := strings.ToLower(cat)
		if catLower == lower {
			return cat
		}
		for _, stem := range stems {
			if strings.Contains(lower, stem) && strings.Contains(catLower, stem) {
				return cat
			}
		}
		if strings.Contains(lower, "blog") && strings.Contains(catLower, "article") {
			return cat
		}
	}
	return ""
}

// keywordFallback scores existing categories against keyword hits in the
// content when no model is available.
func keywordFallback(content, comment string, existing []string) Suggestion {
	text := strings.ToLower(content + " " + comment)

	keywordSets := map[string][]string{
		"development": {"development", "coding", "programming", "software", "app", "code", "git", "github"},
		"research":    {"research", "study", "analysis", "experiment", "investigation", "paper", "academic"},
		"article":     {"article", "blog", "post", "tutorial", "guide", "how to", "tips"},
		"news":        {"news", "announcement", "release", "update", "tech", "technology"},
		"ai":          {"ai", "artificial intelligence", "machine learning", "ml", "neural", "gpt", "llm", "model"},
	}

	var best string
	var bestConfidence float64
	for _, cat := range existing {
		catLower := strings.ToLower(cat)

		if strings.Contains(text, catLower) {
			best = cat
			bestConfidence = 0.9
			break
		}

		for pattern, keywords := range keywordSets {
			if !strings.Contains(catLower, pattern) {
				continue
			}
			hits := 0
			for _, kw := range keywords {
				if strings.Contains(text, kw) {
					hits++
				}
			}
			if hits > 0 {
				confidence := 0.5 + float64(hits)*0.1
				if confidence > 0.85 {
					confidence = 0.85
				}
				if confidence > bestConfidence {
					best = cat
					bestConfidence = confidence
				}
			}
		}
	}

	if best == "" {
		if len(existing) > 0 {
			best = existing[0]
		} else {
			best = "General"
		}
		bestConfidence = 0.4
	}

	words := strings.Fields(content)
	if len(words) > 4 {
		words = words[:4]
	}
	title := titleCase(strings.Join(words, " "))
	if r := []rune(title); len(r) > 30 {
		title = string(r[:27]) + "..."
	}
	if title == "" {
		title = "Saved Content"
	}

	return Suggestion{
		Title:      title,
		Category:   best,
		Confidence: bestConfidence,
		IsNew:      !containsFold(existing, best),
		Reasoning:  "Generated using keyword matching (AI unavailable)",
	}
}

func cacheKey(content, comment string, existing []string) string {
	normContent := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	normComment := strings.Join(strings.Fields(strings.ToLower(comment)), " ")

	cats := make([]string, len(existing))
	for i, c := range existing {
		cats[i] = strings.ToLower(c)
	}
	sort.Strings(cats)

	combined := normContent + "|" + normComment + "|" + strings.Join(cats, ",")
	return fmt.Sprintf("%x", md5.Sum([]byte(combined)))
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimRight(s, "."), 64)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
