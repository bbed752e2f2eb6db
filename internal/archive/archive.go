// Package archive keeps an opt-in local record of finished chat
// transcripts in SQLite. The in-memory chat session stays the owner of
// live history; the archive only receives completed conversations.
package archive

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/baikal-ai/baikalctl/internal/chat"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Transcript is one archived conversation.
type Transcript struct {
	ID           string
	StartedAt    time.Time
	SavedAt      time.Time
	MessageCount int
}

// Store wraps a SQLite database of archived transcripts.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "archive.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

// Save archives a finished conversation and returns its id. Empty
// conversations are not archived.
func (s *Store) Save(messages []chat.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("refusing to archive an empty conversation")
	}

	id := uuid.New().String()
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT INTO transcripts (id, started_at, message_count) VALUES (?, ?, ?)",
		id, messages[0].Time.UTC(), len(messages),
	); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("inserting transcript: %w", err)
	}

	for i, m := range messages {
		if _, err := tx.Exec(
			"INSERT INTO transcript_messages (transcript_id, seq, role, content, sent_at) VALUES (?, ?, ?, ?, ?)",
			id, i, m.Role, m.Content, m.Time.UTC(),
		); err != nil {
			tx.Rollback()
			return "", fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transcript: %w", err)
	}
	return id, nil
}

// List returns archived transcripts, most recently saved first.
func (s *Store) List(limit int) ([]Transcript, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		"SELECT id, started_at, saved_at, message_count FROM transcripts ORDER BY saved_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transcripts: %w", err)
	}
	defer rows.Close()

	var out []Transcript
	for rows.Next() {
		var tr Transcript
		if err := rows.Scan(&tr.ID, &tr.StartedAt, &tr.SavedAt, &tr.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning transcript: %w", err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// Messages replays one archived conversation in order.
func (s *Store) Messages(transcriptID string) ([]chat.Message, error) {
	rows, err := s.db.Query(
		"SELECT role, content, sent_at FROM transcript_messages WHERE transcript_id = ? ORDER BY seq",
		transcriptID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading transcript %s: %w", transcriptID, err)
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.Role, &m.Content, &m.Time); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("transcript %s not found", transcriptID)
	}
	return out, nil
}
