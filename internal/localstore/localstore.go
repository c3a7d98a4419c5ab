// Package localstore is the capture client's persisted copy of the note
// list: a single JSON file holding all notes, newest first. Every mutation
// is a whole-collection read-modify-write serialized through one mutex, so
// concurrent writers cannot drop each other's updates.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/haritha1313/smartnotes/internal/note"
)

// ErrNotFound is returned by Patch when no note matches the id.
var ErrNotFound = errors.New("note not found in local store")

// Store owns the notes file and the auth token file.
type Store struct {
	mu        sync.Mutex
	notesPath string
	authPath  string
}

// New builds a store rooted at dir (typically ~/.smartnotes).
func New(dir string) *Store {
	return &Store{
		notesPath: filepath.Join(dir, "notes.json"),
		authPath:  filepath.Join(dir, "auth.yaml"),
	}
}

// NotesPath is the path of the notes file, for watchers.
func (s *Store) NotesPath() string { return s.notesPath }

// List returns all notes, newest first. A missing file is an empty list.
func (s *Store) List() ([]note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Replace overwrites the whole collection.
func (s *Store) Replace(notes []note.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(notes)
}

// Add inserts a note at the head of the list. A note with a duplicate id
// is rejected.
func (s *Store) Add(n note.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.read()
	if err != nil {
		return err
	}
	for _, existing := range notes {
		if existing.ID == n.ID {
			return fmt.Errorf("duplicate note id %s", n.ID)
		}
	}

	notes = append([]note.Note{n}, notes...)
	return s.write(notes)
}

// Patch applies fn to the note with the given id and writes the list back.
func (s *Store) Patch(id string, fn func(*note.Note)) (note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.read()
	if err != nil {
		return note.Note{}, err
	}

	for i := range notes {
		if notes[i].ID == id {
			fn(&notes[i])
			if err := s.write(notes); err != nil {
				return note.Note{}, err
			}
			return notes[i], nil
		}
	}
	return note.Note{}, ErrNotFound
}

// Delete removes a note by id. Deleting an absent id is a no-op: the
// second delete of the same note must not fail.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.read()
	if err != nil {
		return err
	}

	kept := notes[:0]
	for _, n := range notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(notes) {
		return nil
	}
	return s.write(kept)
}

// read loads the notes file. Callers must hold the mutex.
func (s *Store) read() ([]note.Note, error) {
	data, err := os.ReadFile(s.notesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read local notes: %w", err)
	}

	var notes []note.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("local notes file is corrupt: %w", err)
	}
	return notes, nil
}

// write stores the list atomically: temp file in the same directory, then
// rename over the target. Callers must hold the mutex.
func (s *Store) write(notes []note.Note) error {
	if notes == nil {
		notes = []note.Note{}
	}
	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode local notes: %w", err)
	}

	dir := filepath.Dir(s.notesPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "notes-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write local notes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.notesPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace local notes: %w", err)
	}
	return nil
}

type authFile struct {
	Token string `yaml:"token"`
}

// Token reads the stored bearer token, empty when none is saved.
func (s *Store) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.authPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read auth file: %w", err)
	}

	var auth authFile
	if err := yaml.Unmarshal(data, &auth); err != nil {
		return "", fmt.Errorf("auth file is corrupt: %w", err)
	}
	return auth.Token, nil
}

// SetToken stores the bearer token. An empty token removes the file.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		if err := os.Remove(s.authPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove auth file: %w", err)
		}
		return nil
	}

	data, err := yaml.Marshal(authFile{Token: token})
	if err != nil {
		return fmt.Errorf("failed to encode auth file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.authPath), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := os.WriteFile(s.authPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	return nil
}
