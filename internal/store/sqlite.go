// Package store implements the durable log (EventStore): an append-only,
// crash-durable log of events keyed by workflow_id, with consistent read
// queries, compact snapshots, projection replay, and in-process subscriber
// notification. It is the single durable source of truth for the runtime.
package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeanclaude/jc/internal/event"
	_ "modernc.org/sqlite"
)

// Store is the durable log. A single process holds write access to it; many
// concurrent readers are supported by sqlite's WAL mode.
type Store struct {
	db     *sql.DB
	logger *log.Logger

	writeMu sync.Mutex // serializes the append critical section

	subMu sync.Mutex
	subs  map[string]Subscriber

	snapMu sync.Mutex // guards the best-effort auto-snapshot worker pool

	// autoSnapshotFold, when set via AttachAutoSnapshotProjection, builds the
	// auto-snapshot payload by folding a concrete projection instead of
	// writing the generic marker. nil means "no projection attached".
	autoSnapshotFold func(workflowID string, seq int64) (event.Snapshot, error)

	// snapshotCadence is the event-count interval at which maybeAutoSnapshot
	// fires. Zero means "unset" and falls back to autoSnapshotMultiple.
	snapshotCadence int
}

// Subscriber receives every event successfully committed to the log, in
// commit order. A failing subscriber is isolated: its panic or error never
// affects the commit or other subscribers.
type Subscriber func(e event.Event)

// Option configures a Store at construction time.
type Option func(*Store)

// WithLogger overrides the default logger (log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithSnapshotCadence overrides the event-count interval at which an
// auto-snapshot is produced after a successful append. n <= 0 is ignored
// and leaves the default cadence (autoSnapshotMultiple) in effect.
func WithSnapshotCadence(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.snapshotCadence = n
		}
	}
}

// Open creates or opens a sqlite-backed event store at dbPath. It enables
// WAL journaling, a busy timeout of at least 30 seconds, and foreign keys.
func Open(dbPath string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: log.Default(),
		subs:   make(map[string]Subscriber),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	sequence_number INTEGER PRIMARY KEY AUTOINCREMENT,
	workflow_id     TEXT NOT NULL,
	event_id        TEXT NOT NULL UNIQUE,
	event_type      TEXT NOT NULL,
	timestamp       TEXT NOT NULL,
	data            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_workflow_id ON events(workflow_id);
CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);

CREATE TABLE IF NOT EXISTS snapshots (
	workflow_id     TEXT PRIMARY KEY,
	sequence_number INTEGER NOT NULL,
	state           TEXT NOT NULL,
	created_at      TEXT NOT NULL
);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}
