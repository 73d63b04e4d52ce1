// Package vocab provides the difficulty-tagged German lexicon used to seed
// exercise generation. Entries live in a local SQLite database and are
// imported once from CSV word lists.
package vocab

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrEmptyRange is returned when no entry matches the requested frequency
// band and part of speech.
var ErrEmptyRange = errors.New("no vocabulary entry in requested range")

// PartOfSpeech selects which word list an entry comes from.
type PartOfSpeech string

const (
	PartVerb PartOfSpeech = "verb"
	PartNoun PartOfSpeech = "noun"
	PartAny  PartOfSpeech = ""
)

// Entry is one lexical entry. Frequency runs 1 (most common) to 5 (rare) and
// doubles as the difficulty level of exercises built from the entry.
type Entry struct {
	ID           int64        `json:"id"`
	Word         string       `json:"word"`
	English      string       `json:"english"`
	PartOfSpeech PartOfSpeech `json:"part_of_speech"`
	Frequency    int          `json:"frequency"`

	// Noun fields
	Article string `json:"article,omitempty"`

	// Verb fields
	Case        string `json:"case,omitempty"`
	Praeteritum string `json:"praeteritum,omitempty"`
	Participle  string `json:"participle,omitempty"`
	Regular     bool   `json:"regular,omitempty"`
}

// Store wraps a SQLite connection to the lexicon database.
type Store struct {
	db *sql.DB
}

// Open creates a SQLite connection with WAL mode and applies the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Single-writer SQLite
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		word           TEXT NOT NULL,
		english        TEXT NOT NULL,
		part_of_speech TEXT NOT NULL,
		frequency      INTEGER NOT NULL CHECK (frequency BETWEEN 1 AND 5),
		article        TEXT NOT NULL DEFAULT '',
		grammatical_case TEXT NOT NULL DEFAULT '',
		praeteritum    TEXT NOT NULL DEFAULT '',
		participle     TEXT NOT NULL DEFAULT '',
		regular        INTEGER NOT NULL DEFAULT 1,
		UNIQUE (word, part_of_speech)
	);
	CREATE INDEX IF NOT EXISTS idx_entries_band
		ON entries (part_of_speech, frequency)`)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// RandomEntry returns a uniformly random entry within [minFreq, maxFreq],
// optionally filtered by part of speech. Returns ErrEmptyRange when the band
// is empty.
func (s *Store) RandomEntry(ctx context.Context, minFreq, maxFreq int, pos PartOfSpeech) (*Entry, error) {
	query := `SELECT id, word, english, part_of_speech, frequency,
		article, grammatical_case, praeteritum, participle, regular
		FROM entries
		WHERE frequency BETWEEN ? AND ?`
	args := []any{minFreq, maxFreq}

	if pos != PartAny {
		query += ` AND part_of_speech = ?`
		args = append(args, string(pos))
	}
	query += ` ORDER BY RANDOM() LIMIT 1`

	var e Entry
	var regular int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&e.ID, &e.Word, &e.English, &e.PartOfSpeech, &e.Frequency,
		&e.Article, &e.Case, &e.Praeteritum, &e.Participle, &regular,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: frequency %d-%d, part %q", ErrEmptyRange, minFreq, maxFreq, pos)
	}
	if err != nil {
		return nil, fmt.Errorf("query random entry: %w", err)
	}
	e.Regular = regular != 0
	return &e, nil
}

// Count returns the number of entries for a part of speech (all when PartAny).
func (s *Store) Count(ctx context.Context, pos PartOfSpeech) (int, error) {
	query := `SELECT COUNT(*) FROM entries`
	args := []any{}
	if pos != PartAny {
		query += ` WHERE part_of_speech = ?`
		args = append(args, string(pos))
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (s *Store) insert(ctx context.Context, e *Entry) error {
	regular := 0
	if e.Regular {
		regular = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO entries
		(word, english, part_of_speech, frequency, article, grammatical_case, praeteritum, participle, regular)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (word, part_of_speech) DO UPDATE SET
			english = excluded.english,
			frequency = excluded.frequency,
			article = excluded.article,
			grammatical_case = excluded.grammatical_case,
			praeteritum = excluded.praeteritum,
			participle = excluded.participle,
			regular = excluded.regular`,
		e.Word, e.English, string(e.PartOfSpeech), e.Frequency,
		e.Article, e.Case, e.Praeteritum, e.Participle, regular)
	if err != nil {
		return fmt.Errorf("insert entry %q: %w", e.Word, err)
	}
	return nil
}
