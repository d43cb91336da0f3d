// Package index persists scan metadata in SQLite: when each root was last
// scanned, how many files it held, and how long the scan took. The latest
// counts seed the progress estimate for the next update, replacing a rescan
// of everything just to size a progress bar.
package index

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Scan reasons recorded with each row.
const (
	ReasonUpdate = "update" // explicit finddoc update
	ReasonFind   = "find"   // cache-miss scan during a search
	ReasonWatch  = "watch"  // watch-mode fallback rescan
)

// Scan is one completed scan of a root.
type Scan struct {
	ID         string
	Root       string
	FileCount  int64
	Duration   time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
	Reason     string
}

// Store manages the scan-history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the database at dbPath and ensures
// the schema exists.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout first so the remaining pragmas wait on locks instead
	// of failing when another finddoc process is initializing.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a statement with exponential backoff on
// "database is locked" errors from concurrent initialization.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordScan inserts a completed scan. A missing ID is assigned a UUID, a
// missing reason defaults to ReasonUpdate.
func (s *Store) RecordScan(ctx context.Context, scan *Scan) error {
	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	if scan.Reason == "" {
		scan.Reason = ReasonUpdate
	}

	query := `INSERT INTO scans (id, root, file_count, duration_ms, started_at, finished_at, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		scan.ID,
		scan.Root,
		scan.FileCount,
		scan.Duration.Milliseconds(),
		scan.StartedAt.UTC(),
		scan.FinishedAt.UTC(),
		scan.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

// LatestScan returns the most recent scan of root, or nil when the root
// has never been scanned.
func (s *Store) LatestScan(ctx context.Context, root string) (*Scan, error) {
	query := `SELECT id, root, file_count, duration_ms, started_at, finished_at, reason
		FROM scans WHERE root = ? ORDER BY finished_at DESC, id DESC LIMIT 1`

	scan, err := scanRow(s.db.QueryRowContext(ctx, query, root))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest scan: %w", err)
	}
	return scan, nil
}

// EstimateTotal sums the latest file counts of the given roots. Roots
// without history contribute zero; a total of zero means no estimate.
func (s *Store) EstimateTotal(ctx context.Context, roots []string) (int64, error) {
	var total int64
	for _, root := range roots {
		latest, err := s.LatestScan(ctx, root)
		if err != nil {
			return 0, err
		}
		if latest != nil {
			total += latest.FileCount
		}
	}
	return total, nil
}

// RecentScans returns up to limit scans of root, newest first. An empty
// root returns scans across all roots.
func (s *Store) RecentScans(ctx context.Context, root string, limit int) ([]*Scan, error) {
	query := `SELECT id, root, file_count, duration_ms, started_at, finished_at, reason
		FROM scans`
	args := []any{}
	if root != "" {
		query += ` WHERE root = ?`
		args = append(args, root)
	}
	query += ` ORDER BY finished_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return scans, nil
}

// Prune deletes scans finished before the retention cutoff, keeping the
// newest row per root so estimates survive. Returns rows removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	query := `DELETE FROM scans WHERE finished_at < ?
		AND id NOT IN (
			SELECT id FROM scans s2
			WHERE s2.root = scans.root
			ORDER BY s2.finished_at DESC, s2.id DESC LIMIT 1
		)`
	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune scans: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned scans: %w", err)
	}
	return removed, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*Scan, error) {
	scan := &Scan{}
	var durationMS int64
	err := row.Scan(
		&scan.ID,
		&scan.Root,
		&scan.FileCount,
		&durationMS,
		&scan.StartedAt,
		&scan.FinishedAt,
		&scan.Reason,
	)
	if err != nil {
		return nil, err
	}
	scan.Duration = time.Duration(durationMS) * time.Millisecond
	return scan, nil
}
