package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists the note collection to a SQLite database. Drop-in
// replacement for MemoryStore when notes should survive restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			comment TEXT,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'General',
			timestamp DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			sync_status TEXT NOT NULL DEFAULT 'local',
			notion_page_id TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_notes_category ON notes(category);
		CREATE INDEX IF NOT EXISTS idx_notes_created ON notes(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(rec *Record) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO notes (id, text, comment, url, title, category, timestamp, created_at, updated_at, sync_status, notion_page_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Text, rec.Comment, rec.URL, rec.Title, rec.Category, rec.Timestamp, rec.CreatedAt, rec.UpdatedAt, rec.SyncStatus, rec.NotionPageID)

	return err
}

func (s *SQLiteStore) Get(id string) (*Record, error) {
	row := s.db.QueryRow(`
		SELECT id, text, comment, url, title, category, timestamp, created_at, updated_at, sync_status, notion_page_id
		FROM notes WHERE id = ?
	`, id)

	return scanRecord(row)
}

func (s *SQLiteStore) List(filter Filter, page, pageSize int) (*Page, error) {
	page, pageSize = ClampPaging(page, pageSize)

	where := "1=1"
	args := []any{}
	if filter.Category != "" {
		where += " AND category = ? COLLATE NOCASE"
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		where += " AND (text LIKE ? OR comment LIKE ? OR url LIKE ? OR title LIKE ?)"
		q := "%" + filter.Search + "%"
		args = append(args, q, q, q, q)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM notes WHERE "+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	rows, err := s.db.Query(`
		SELECT id, text, comment, url, title, category, timestamp, created_at, updated_at, sync_status, notion_page_id
		FROM notes WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, append(args, pageSize, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Page{
		Notes:    notes,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasNext:  offset+len(notes) < total,
	}, nil
}

func (s *SQLiteStore) Update(id string, patch Patch) (*Record, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if patch.Comment != nil {
		sets = append(sets, "comment = ?")
		args = append(args, *patch.Comment)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	args = append(args, id)

	res, err := s.db.Exec("UPDATE notes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(id)
}

func (s *SQLiteStore) SetSyncStatus(id, status, notionPageID string) error {
	var res sql.Result
	var err error
	if notionPageID != "" {
		res, err = s.db.Exec("UPDATE notes SET sync_status = ?, notion_page_id = ? WHERE id = ?", status, notionPageID, id)
	} else {
		res, err = s.db.Exec("UPDATE notes SET sync_status = ? WHERE id = ?", status, id)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Stats() (*Stats, error) {
	stats := &Stats{
		Categories:  make(map[string]int),
		GeneratedAt: time.Now().UTC(),
	}

	rows, err := s.db.Query(`SELECT COALESCE(NULLIF(category, ''), 'General'), COUNT(*) FROM notes GROUP BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var cat string
		var count int
		if err := rows.Scan(&cat, &count); err != nil {
			return nil, err
		}
		stats.Categories[cat] = count
		stats.TotalNotes += count
	}
	return stats, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*Record, error) {
	var rec Record
	var comment, notionPageID sql.NullString

	err := row.Scan(&rec.ID, &rec.Text, &comment, &rec.URL, &rec.Title, &rec.Category,
		&rec.Timestamp, &rec.CreatedAt, &rec.UpdatedAt, &rec.SyncStatus, &notionPageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.Comment = comment.String
	rec.NotionPageID = notionPageID.String
	return &rec, nil
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*SQLiteStore)(nil)

// Open picks a store implementation: an empty path means in-memory, any
// other value a SQLite database at that path.
func Open(dbPath string) (Store, error) {
	if dbPath == "" {
		return NewMemoryStore(), nil
	}
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open note database: %w", err)
	}
	return s, nil
}
