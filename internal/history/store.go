// Package history records pfind runs in a SQLite database so earlier
// results can be listed and compared without walking the tree again.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
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

// Status is the outcome of a recorded run.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusIncomplete Status = "incomplete"
	StatusFailed     Status = "failed"
)

var (
	// ErrRunNotFound is returned when no run matches an ID or ID prefix.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousID is returned when an ID prefix matches several runs.
	ErrAmbiguousID = errors.New("run id prefix is ambiguous")
)

// Run is one recorded walk.
type Run struct {
	ID         string
	Root       string
	Spec       string
	StartedAt  time.Time
	FinishedAt time.Time
	Visited    int
	Matched    int
	Status     Status
	Error      string
	// Matches is only populated on write; read it back with Store.Matches.
	Matches []string
}

// Duration is the wall time of the run.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store manages the SQLite run history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the database at dbPath.
// ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// pragmas are per connection, and each pooled ":memory:" connection
	// would be a separate empty database
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database location the store was opened with.
func (s *Store) Path() string {
	return s.dbPath
}

// RecordRun stores run and its matches in one transaction. An empty ID is
// replaced by a new UUID, written back to run.ID.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, root, spec, started_at, finished_at, visited, matched, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Root,
		run.Spec,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		run.Visited,
		run.Matched,
		string(run.Status),
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(run.Matches) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO matches (run_id, seq, path) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare match insert: %w", err)
		}
		defer stmt.Close()

		for i, path := range run.Matches {
			if _, err := stmt.ExecContext(ctx, run.ID, i, path); err != nil {
				return fmt.Errorf("insert match %s: %w", path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `id, root, spec, started_at, finished_at, visited, matched, status, error`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var status string
	err := row.Scan(
		&run.ID,
		&run.Root,
		&run.Spec,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Visited,
		&run.Matched,
		&status,
		&run.Error,
	)
	if err != nil {
		return nil, err
	}
	run.Status = Status(status)
	return run, nil
}

// ListRuns returns recorded runs, most recent first. limit <= 0 returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// GetRun returns the run whose ID equals id or, failing that, the single run
// whose ID starts with id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query run %s: %w", id, err)
	}

	pattern := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(id) + "%"
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' LIMIT 2`, pattern)
	if err != nil {
		return nil, fmt.Errorf("query run prefix %s: %w", id, err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

// Matches returns the paths recorded for runID in the order they were
// emitted.
func (s *Store) Matches(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM matches WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}

	return paths, nil
}

// DeleteRun removes a run and its matches.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
