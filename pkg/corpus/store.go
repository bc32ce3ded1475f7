// Package corpus fetches extended stopword lists and caches them in SQLite
// so the network is hit at most once per corpus.
package corpus

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotCached is returned by Store.Get when a corpus has not been stored.
var ErrNotCached = errors.New("corpus not cached")

// Entry is one cached word list.
type Entry struct {
	Name      string
	Language  string
	SourceURL string
	Words     []string
	FetchedAt int64
}

// Store manages the corpora SQLite table.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the SQLite database at path and ensures the
// corpora table exists.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open corpus db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS corpora (
		name        TEXT NOT NULL,
		language    TEXT NOT NULL,
		source_url  TEXT NOT NULL,
		words       TEXT NOT NULL,
		fetched_at  INTEGER NOT NULL,
		PRIMARY KEY (name, language)
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create corpora table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns a cached corpus, or ErrNotCached.
func (s *Store) Get(name, language string) (*Entry, error) {
	e := &Entry{Name: name, Language: language}
	var words string
	err := s.db.QueryRow(
		`SELECT source_url, words, fetched_at FROM corpora WHERE name = ? AND language = ?`,
		name, language,
	).Scan(&e.SourceURL, &words, &e.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("get corpus %s/%s: %w", name, language, err)
	}
	e.Words = splitWords(words)
	return e, nil
}

// Put stores or replaces a corpus.
func (s *Store) Put(name, language, sourceURL string, words []string) error {
	_, err := s.db.Exec(
		`INSERT INTO corpora (name, language, source_url, words, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name, language) DO UPDATE SET
			source_url = excluded.source_url,
			words = excluded.words,
			fetched_at = excluded.fetched_at`,
		name, language, sourceURL, strings.Join(words, "\n"), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("put corpus %s/%s: %w", name, language, err)
	}
	return nil
}

// List returns all cached corpora without their words, ordered by name and language.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT name, language, source_url, fetched_at
		FROM corpora ORDER BY name, language`)
	if err != nil {
		return nil, fmt.Errorf("list corpora: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Language, &e.SourceURL, &e.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan corpus: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// splitWords parses a one-word-per-line list, dropping blanks and comments.
func splitWords(s string) []string {
	var words []string
	for _, line := range strings.Split(s, "\n") {
		w := strings.TrimSpace(strings.TrimRight(line, "\r"))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		words = append(words, strings.ToLower(w))
	}
	return words
}
