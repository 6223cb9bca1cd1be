// Package history persists completed dictations in a local SQLite
// database, trimmed to a configurable number of recent entries.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"whisperkey/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS dictations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	text       TEXT NOT NULL,
	language   TEXT NOT NULL DEFAULT '',
	duration   REAL NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
`

// Store keeps at most maxSize entries; Add evicts the oldest beyond
// that. maxSize <= 0 keeps everything.
type Store struct {
	db      *sql.DB
	maxSize int
}

func Open(path string, maxSize int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db, maxSize: maxSize}, nil
}

func (s *Store) Add(entry domain.HistoryEntry) error {
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO dictations (text, language, duration, created_at) VALUES (?, ?, ?, ?)`,
		entry.Text, entry.Language, entry.Duration, created.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert dictation: %w", err)
	}
	if s.maxSize > 0 {
		_, err = s.db.Exec(
			`DELETE FROM dictations WHERE id NOT IN (
				SELECT id FROM dictations ORDER BY id DESC LIMIT ?)`,
			s.maxSize,
		)
		if err != nil {
			return fmt.Errorf("trim dictations: %w", err)
		}
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]domain.HistoryEntry, error) {
	if n <= 0 {
		n = s.maxSize
	}
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.Query(
		`SELECT id, text, language, duration, created_at
		 FROM dictations ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query dictations: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Text, &e.Language, &e.Duration, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dictation: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dictations: %w", err)
	}
	return entries, nil
}

func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM dictations`); err != nil {
		return fmt.Errorf("clear dictations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
