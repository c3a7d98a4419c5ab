package store

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps the note collection in process memory. Contents do not
// survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	notes map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notes: make(map[string]*Record)}
}

func (s *MemoryStore) Create(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.notes[rec.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) List(filter Filter, page, pageSize int) (*Page, error) {
	page, pageSize = ClampPaging(page, pageSize)

	s.mu.RLock()
	filtered := make([]*Record, 0, len(s.notes))
	for _, rec := range s.notes {
		if matches(rec, filter) {
			cp := *rec
			filtered = append(filtered, &cp)
		}
	}
	s.mu.RUnlock()

	// Newest first.
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &Page{
		Notes:    filtered[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasNext:  end < total,
	}, nil
}

func (s *MemoryStore) Update(id string, patch Patch) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.notes[id]
	if !ok {
		return nil, ErrNotFound
	}

	if patch.Comment != nil {
		rec.Comment = *patch.Comment
	}
	if patch.Category != nil {
		rec.Category = *patch.Category
	}
	rec.UpdatedAt = time.Now().UTC()

	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) SetSyncStatus(id, status, notionPageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.notes[id]
	if !ok {
		return ErrNotFound
	}
	rec.SyncStatus = status
	if notionPageID != "" {
		rec.NotionPageID = notionPageID
	}
	return nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *MemoryStore) Stats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make(map[string]int)
	for _, rec := range s.notes {
		cat := rec.Category
		if cat == "" {
			cat = "General"
		}
		categories[cat]++
	}

	return &Stats{
		TotalNotes:  len(s.notes),
		Categories:  categories,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (s *MemoryStore) Close() error { return nil }

func matches(rec *Record, filter Filter) bool {
	if filter.Category != "" && !strings.EqualFold(rec.Category, filter.Category) {
		return false
	}
	if filter.Search != "" {
		q := strings.ToLower(filter.Search)
		haystack := strings.ToLower(rec.Text + " " + rec.Comment + " " + rec.URL + " " + rec.Title)
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}
