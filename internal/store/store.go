package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-intake/internal/intake"
	"media-intake/internal/logging"
	"media-intake/internal/metrics"
)

// Default timeout for ledger operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned when an event id is not in the ledger.
var ErrNotFound = errors.New("intake event not found")

// Store is the intake ledger.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens (creating if needed) the ledger at dbPath. The parent directory
// must exist and be writable.
func New(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("Ledger path: %s", dbPath)

	if err := diagnosePermissions(dbPath); err != nil {
		logging.Warn("Ledger permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close ledger after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to ledger: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	start := time.Now()
	err = s.initialize(ctx)
	recordQuery("initialize_schema", start, err)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close ledger after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	logging.Info("Ledger initialized successfully at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS intake_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		origin TEXT NOT NULL,
		policy TEXT NOT NULL,
		file_count INTEGER NOT NULL DEFAULT 0,
		accepted_count INTEGER NOT NULL DEFAULT 0,
		rejected_count INTEGER NOT NULL DEFAULT 0,
		accepted_bytes INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_intake_events_created ON intake_events(created_at);

	CREATE TABLE IF NOT EXISTS intake_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		mime_type TEXT NOT NULL DEFAULT '',
		size INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error_kind TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (event_id) REFERENCES intake_events(id) ON DELETE CASCADE,
		UNIQUE(event_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_intake_files_event ON intake_files(event_id);
	CREATE INDEX IF NOT EXISTS idx_intake_files_outcome ON intake_files(outcome);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordEvent stores one partitioned batch and returns the stored event.
func (s *Store) RecordEvent(ctx context.Context, origin intake.Origin, policy string, files []intake.File, res intake.Result) (ev *Event, err error) {
	start := time.Now()
	defer func() { recordQuery("record_event", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ev = &Event{
		ID:            uuid.New().String(),
		Origin:        origin,
		Policy:        policy,
		FileCount:     len(files),
		AcceptedCount: len(res.Accepted),
		RejectedCount: len(res.Rejected),
		AcceptedBytes: res.AcceptedBytes(),
		CreatedAt:     time.Now().Truncate(time.Second),
		Files:         fileRecords(files, res),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err = insertEvent(ctx, tx, ev); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit intake event: %w", err)
	}

	logging.Debug("Recorded intake event %s (%d files, %d accepted)", ev.ID, ev.FileCount, ev.AcceptedCount)
	return ev, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, ev *Event) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO intake_events (id, origin, policy, file_count, accepted_count, rejected_count, accepted_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.Origin), ev.Policy, ev.FileCount, ev.AcceptedCount, ev.RejectedCount, ev.AcceptedBytes, ev.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert intake event: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO intake_files (event_id, position, name, mime_type, size, outcome, error_kind, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare file insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range ev.Files {
		if _, err := stmt.ExecContext(ctx, ev.ID, f.Position, f.Name, f.Type, f.Size, string(f.Outcome), string(f.Kind), f.Detail); err != nil {
			return fmt.Errorf("failed to insert file %q: %w", f.Name, err)
		}
	}
	return nil
}

// Recent returns up to limit events, newest first, with their files.
func (s *Store) Recent(ctx context.Context, limit int) (events []Event, err error) {
	start := time.Now()
	defer func() { recordQuery("recent_events", start, err) }()

	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, origin, policy, file_count, accepted_count, rejected_count, accepted_bytes, created_at
		FROM intake_events
		ORDER BY seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events = []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for i := range events {
		if events[i].Files, err = s.loadFiles(ctx, events[i].ID); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// Get returns a single event with its files.
func (s *Store) Get(ctx context.Context, id string) (ev *Event, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			recordQuery("get_event", start, nil)
			return
		}
		recordQuery("get_event", start, err)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, origin, policy, file_count, accepted_count, rejected_count, accepted_bytes, created_at
		FROM intake_events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if e.Files, err = s.loadFiles(ctx, e.ID); err != nil {
		return nil, err
	}
	return &e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (Event, error) {
	var ev Event
	var origin string
	var createdAt int64
	if err := row.Scan(&ev.ID, &origin, &ev.Policy, &ev.FileCount, &ev.AcceptedCount,
		&ev.RejectedCount, &ev.AcceptedBytes, &createdAt); err != nil {
		return Event{}, err
	}
	ev.Origin = intake.Origin(origin)
	ev.CreatedAt = time.Unix(createdAt, 0)
	return ev, nil
}

func (s *Store) loadFiles(ctx context.Context, eventID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, name, mime_type, size, outcome, error_kind, detail
		FROM intake_files WHERE event_id = ?
		ORDER BY position`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		var outcome, kind string
		if err := rows.Scan(&f.Position, &f.Name, &f.Type, &f.Size, &outcome, &kind, &f.Detail); err != nil {
			return nil, err
		}
		f.Outcome = Outcome(outcome)
		f.Kind = intake.ErrorKind(kind)
		files = append(files, f)
	}
	return files, rows.Err()
}

// GetStats returns ledger totals. Errors are logged and yield zero values so
// the metrics collector keeps running.
func (s *Store) GetStats() metrics.Stats {
	start := time.Now()
	var err error
	defer func() { recordQuery("stats", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var stats metrics.Stats
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM intake_events),
			(SELECT COUNT(*) FROM intake_files WHERE outcome = 'accepted'),
			(SELECT COUNT(*) FROM intake_files WHERE outcome = 'rejected')
	`).Scan(&stats.TotalEvents, &stats.AcceptedFiles, &stats.RejectedFiles)
	if err != nil {
		logging.Error("failed to read ledger stats: %v", err)
		return metrics.Stats{}
	}
	return stats
}

// Ping checks the connection, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func recordQuery(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func diagnosePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat ledger directory: %w", err)
	}
	logging.Debug("Ledger directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("ledger directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, p := range []string{dbPath, dbPath + "-wal"} {
		if info, err := os.Stat(p); err == nil && info.Mode().Perm()&0o200 == 0 {
			logging.Warn("%s is read-only (mode %v), writes will fail", p, info.Mode())
		}
	}
	return nil
}
