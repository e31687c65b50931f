// Package store records matches, profiles, chats and suggestions in SQLite
// and writes per-person artifacts to disk.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	werrors "github.com/mj1618/wingman/internal/errors"
)

// CurrentSchemaVersion is the latest schema version.
const CurrentSchemaVersion = 2

// SourcePhoneLink is the match source for the phone-mirroring window.
const SourcePhoneLink = "phone_link"

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	_ = os.Chmod(path, 0o600)

	return &Store{
		db:      db,
		path:    path,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// WithClock replaces the clock used for timestamps and batch ids.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS matches (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  name       TEXT,
		  source     TEXT,
		  handle     TEXT,
		  folder     TEXT,
		  created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS profiles (
		  id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		  match_id             INTEGER REFERENCES matches(id),
		  bio                  TEXT,
		  traits_json          TEXT,
		  last_screenshot_path TEXT,
		  updated_at           INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chats (
		  id           INTEGER PRIMARY KEY AUTOINCREMENT,
		  match_id     INTEGER REFERENCES matches(id),
		  history_text TEXT,
		  summary      TEXT,
		  last_seen_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS suggestions (
		  id               INTEGER PRIMARY KEY AUTOINCREMENT,
		  match_id         INTEGER REFERENCES matches(id),
		  prompt           TEXT,
		  suggestions_json TEXT,
		  chosen_text      TEXT,
		  created_at       INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_matches_name_source ON matches(name, source);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	if version < 2 {
		schema := `
		ALTER TABLE suggestions ADD COLUMN batch_id TEXT;
		CREATE UNIQUE INDEX IF NOT EXISTS idx_suggestions_batch_id
		ON suggestions(batch_id) WHERE batch_id IS NOT NULL;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := SetUserVersion(db, 2); err != nil {
			return err
		}
	}

	return nil
}

func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the schema version.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// ---------- Records ----------

// Match is one person seen in the phone window.
type Match struct {
	ID        int64     `yaml:"id"               json:"id"`
	Name      string    `yaml:"name"             json:"name"`
	Source    string    `yaml:"source"           json:"source"`
	Handle    string    `yaml:"handle,omitempty" json:"handle,omitempty"`
	Folder    string    `yaml:"folder,omitempty" json:"folder,omitempty"`
	CreatedAt time.Time `yaml:"created_at"       json:"created_at"`
}

// Suggestion is one generated reply.
type Suggestion struct {
	Text string `yaml:"text" json:"text"`
}

// SuggestionBatch is one generation run.
type SuggestionBatch struct {
	ID          int64        `yaml:"id"                    json:"id"`
	BatchID     string       `yaml:"batch_id,omitempty"    json:"batch_id,omitempty"`
	MatchID     int64        `yaml:"match_id"              json:"match_id"`
	MatchName   string       `yaml:"match_name,omitempty"  json:"match_name,omitempty"`
	Prompt      string       `yaml:"prompt,omitempty"      json:"prompt,omitempty"`
	Suggestions []Suggestion `yaml:"suggestions"           json:"suggestions"`
	ChosenText  string       `yaml:"chosen_text,omitempty" json:"chosen_text,omitempty"`
	CreatedAt   time.Time    `yaml:"created_at"            json:"created_at"`
}

// ---------- Writes ----------

// UpsertMatch returns the id of the match with this name and source,
// creating it when absent. An existing match keeps its handle and folder.
func (s *Store) UpsertMatch(ctx context.Context, name, source, handle, folder string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM matches WHERE name = ? AND source = ? ORDER BY id LIMIT 1",
		name, source,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, werrors.NewPersistenceFailed("match", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO matches (name, source, handle, folder, created_at) VALUES (?, ?, ?, ?, ?)",
		name, source, toNullString(handle), toNullString(folder), s.now().Unix(),
	)
	if err != nil {
		return 0, werrors.NewPersistenceFailed("match", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, werrors.NewPersistenceFailed("match", err)
	}
	return id, nil
}

// SaveProfile appends a profile snapshot.
func (s *Store) SaveProfile(ctx context.Context, matchID int64, bio, traitsJSON, screenshotPath string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO profiles (match_id, bio, traits_json, last_screenshot_path, updated_at) VALUES (?, ?, ?, ?, ?)",
		matchID, bio, toNullString(traitsJSON), toNullString(screenshotPath), s.now().Unix(),
	)
	if err != nil {
		return werrors.NewPersistenceFailed("profile", err)
	}
	return nil
}

// SaveChat appends a chat snapshot.
func (s *Store) SaveChat(ctx context.Context, matchID int64, history, summary string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chats (match_id, history_text, summary, last_seen_at) VALUES (?, ?, ?, ?)",
		matchID, history, toNullString(summary), s.now().Unix(),
	)
	if err != nil {
		return werrors.NewPersistenceFailed("chat", err)
	}
	return nil
}

// SaveSuggestions records a batch of replies and returns its batch id.
func (s *Store) SaveSuggestions(ctx context.Context, matchID int64, prompt string, replies []string) (string, error) {
	items := make([]Suggestion, len(replies))
	for i, r := range replies {
		items[i] = Suggestion{Text: r}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", werrors.NewPersistenceFailed("suggestions", err)
	}

	batchID, err := s.newBatchID()
	if err != nil {
		return "", werrors.NewPersistenceFailed("suggestions", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO suggestions (match_id, prompt, suggestions_json, batch_id, created_at) VALUES (?, ?, ?, ?, ?)",
		matchID, prompt, string(data), batchID, s.now().Unix(),
	)
	if err != nil {
		return "", werrors.NewPersistenceFailed("suggestions", err)
	}
	return batchID, nil
}

// MarkChosen records which reply of a batch was sent.
func (s *Store) MarkChosen(ctx context.Context, batchID, text string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE suggestions SET chosen_text = ? WHERE batch_id = ?",
		text, batchID,
	)
	if err != nil {
		return werrors.NewPersistenceFailed("chosen suggestion", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return werrors.NewPersistenceFailed("chosen suggestion", fmt.Errorf("no batch %s", batchID))
	}
	return nil
}

func (s *Store) newBatchID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(s.now()), s.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ---------- Reads ----------

// ListMatches returns every match, newest first.
func (s *Store) ListMatches(ctx context.Context) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, source, handle, folder, created_at FROM matches ORDER BY id DESC",
	)
	if err != nil {
		return nil, werrors.NewPersistenceFailed("matches", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		var name, source, handle, folder sql.NullString
		var created int64
		if err := rows.Scan(&m.ID, &name, &source, &handle, &folder, &created); err != nil {
			return nil, werrors.NewPersistenceFailed("matches", err)
		}
		m.Name, m.Source, m.Handle, m.Folder = name.String, source.String, handle.String, folder.String
		m.CreatedAt = time.Unix(created, 0)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, werrors.NewPersistenceFailed("matches", err)
	}
	return out, nil
}

// RecentSuggestions returns up to limit batches, newest first. matchID 0
// means every match.
func (s *Store) RecentSuggestions(ctx context.Context, matchID int64, limit int) ([]SuggestionBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT s.id, s.batch_id, s.match_id, m.name, s.prompt, s.suggestions_json,
			s.chosen_text, s.created_at
		FROM suggestions s
		LEFT JOIN matches m ON m.id = s.match_id
	`
	args := []any{}
	if matchID != 0 {
		query += " WHERE s.match_id = ?"
		args = append(args, matchID)
	}
	query += " ORDER BY s.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, werrors.NewPersistenceFailed("suggestions", err)
	}
	defer rows.Close()

	var out []SuggestionBatch
	for rows.Next() {
		var b SuggestionBatch
		var batchID, name, prompt, suggJSON, chosen sql.NullString
		var mid sql.NullInt64
		var created int64
		if err := rows.Scan(&b.ID, &batchID, &mid, &name, &prompt, &suggJSON, &chosen, &created); err != nil {
			return nil, werrors.NewPersistenceFailed("suggestions", err)
		}
		b.BatchID, b.MatchID, b.MatchName = batchID.String, mid.Int64, name.String
		b.Prompt, b.ChosenText = prompt.String, chosen.String
		b.CreatedAt = time.Unix(created, 0)
		if suggJSON.Valid && suggJSON.String != "" {
			if err := json.Unmarshal([]byte(suggJSON.String), &b.Suggestions); err != nil {
				return nil, werrors.NewPersistenceFailed("suggestions", err)
			}
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, werrors.NewPersistenceFailed("suggestions", err)
	}
	return out, nil
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
