package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Record is one successful upload, kept for operator diagnosis.
type Record struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	FileID      string    `json:"file_id"`
	URL         string    `json:"url"`
	WebViewLink string    `json:"web_view_link"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is a sqlite-backed upload log.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL,
	file_id TEXT NOT NULL,
	url TEXT NOT NULL,
	web_view_link TEXT NOT NULL DEFAULT '',
	mime_type TEXT NOT NULL DEFAULT '',
	size INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_uploads_created_at ON uploads(created_at DESC);
`

// Open opens (and if needed creates) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Add records an upload. The record id is generated here when empty.
func (s *Store) Add(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (id, file_name, file_id, url, web_view_link, mime_type, size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileName, rec.FileID, rec.URL, rec.WebViewLink, rec.MimeType, rec.Size, rec.CreatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("insert upload record: %w", err)
	}
	return rec, nil
}

// Recent returns the most recent uploads, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_name, file_id, url, web_view_link, mime_type, size, created_at
		 FROM uploads ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.FileID, &rec.URL,
			&rec.WebViewLink, &rec.MimeType, &rec.Size, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upload record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate upload records: %w", err)
	}
	return records, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
