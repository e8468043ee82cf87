// Package journal appends every caller-visible event to an SQLite file for
// later inspection. The journal is observational only: it is never read back
// to rebuild task state, and a write failure never affects the turn that
// produced the event.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/relay/internal/protocol"
)

// Journal is an append-only event log backed by SQLite.
type Journal struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// DefaultPath returns the journal location under the user's data directory.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "relay", "journal.db")
}

// Open opens the journal at path, creating parent directories and the schema
// as needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			recorded_at DATETIME NOT NULL
		)
	`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create events table: %w", err)
	}
	if _, err := conn.Exec(`CREATE INDEX IF NOT EXISTS idx_events_task ON events(task_id)`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create task index: %w", err)
	}

	return &Journal{conn: conn, path: path}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.conn.Close()
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Record appends one event. The payload is stored as JSON.
func (j *Journal) Record(ev protocol.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.conn.Exec(
		`INSERT INTO events (task_id, kind, payload, recorded_at) VALUES (?, ?, ?, ?)`,
		ev.EventTaskID(), ev.EventKind(), string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Entry is one journaled event as stored.
type Entry struct {
	ID         int64
	TaskID     string
	Kind       string
	Payload    string
	RecordedAt time.Time
}

// TaskEvents returns every journaled event for one task in append order.
func (j *Journal) TaskEvents(taskID string) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.conn.Query(
		`SELECT id, task_id, kind, payload, recorded_at FROM events WHERE task_id = ? ORDER BY id`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Kind, &e.Payload, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the total number of journaled events.
func (j *Journal) Count() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var n int
	row := j.conn.QueryRow(`SELECT COUNT(*) FROM events`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
