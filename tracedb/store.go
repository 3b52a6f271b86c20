// Package tracedb persists simulation sessions and their monitor traces in
// an SQLite database.
package tracedb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/db47h/logsim"
)

// Store handles SQLite database operations for simulation session logging.
type Store struct {
	db *sql.DB
}

// Session is one recorded simulation run.
type Session struct {
	ID        string
	CreatedAt time.Time
	Source    string // the circuit definition text
	Ticks     int
}

// Open opens or creates the database at path. Use ":memory:" for an
// in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		source TEXT NOT NULL,
		ticks INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS samples (
		session_id TEXT NOT NULL REFERENCES sessions(id),
		tick INTEGER NOT NULL,
		signal TEXT NOT NULL,
		level INTEGER NOT NULL,
		PRIMARY KEY (session_id, tick, signal)
	);
	CREATE INDEX IF NOT EXISTS idx_samples_session ON samples(session_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession stores the definition source and the full monitor trace of a
// finished run and returns the new session id.
func (s *Store) SaveSession(source string, tr *logsim.Trace) (string, error) {
	id := uuid.New().String()
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO sessions (id, created_at, source, ticks) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC(), source, tr.Len())
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO samples (session_id, tick, signal, level) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare samples insert: %w", err)
	}
	defer stmt.Close()

	pins := tr.Pins()
	for tick := 0; tick < tr.Len(); tick++ {
		for i, v := range tr.Snapshot(tick) {
			level := 0
			if v {
				level = 1
			}
			if _, err := stmt.Exec(id, tick+1, pins[i].String(), level); err != nil {
				return "", fmt.Errorf("insert sample: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Session returns the session record with the given id.
func (s *Store) Session(id string) (Session, error) {
	var sess Session
	err := s.db.QueryRow(`SELECT id, created_at, source, ticks FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.CreatedAt, &sess.Source, &sess.Ticks)
	if err != nil {
		return Session{}, fmt.Errorf("load session %s: %w", id, err)
	}
	return sess, nil
}

// Sessions returns all recorded sessions, most recent first.
func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.db.Query(`SELECT id, created_at, source, ticks FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.CreatedAt, &sess.Source, &sess.Ticks); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Samples returns the recorded trace of one session as a map from signal
// name to its per-tick levels.
func (s *Store) Samples(id string) (map[string][]bool, error) {
	rows, err := s.db.Query(
		`SELECT signal, tick, level FROM samples WHERE session_id = ? ORDER BY tick`, id)
	if err != nil {
		return nil, fmt.Errorf("load samples for %s: %w", id, err)
	}
	defer rows.Close()

	out := make(map[string][]bool)
	for rows.Next() {
		var signal string
		var tick, level int
		if err := rows.Scan(&signal, &tick, &level); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out[signal] = append(out[signal], level != 0)
	}
	return out, rows.Err()
}
