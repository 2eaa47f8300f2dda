// Package history persists analysis runs to a local SQLite database so
// successive invocations can be compared: run metadata plus every
// diagnostic, with schema managed through embedded migrations.
package history

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/reap-dev/reap/pkg/lint"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store records analysis runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one recorded analysis run.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Files       int
	Diagnostics int
}

// Open opens (creating if needed) the history database and applies
// pending migrations. Use ":memory:" for an in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging history database: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores one run and its diagnostics, returning the run ID.
func (s *Store) RecordRun(files int, diags []lint.Diagnostic) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, created_at, file_count, diagnostic_count) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), files, len(diags),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO diagnostics (run_id, file, line, col, code, message) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing diagnostic insert: %w", err)
	}
	defer stmt.Close()
	for _, d := range diags {
		if _, err := stmt.Exec(id, d.File, d.Line, d.Col, d.RuleID, d.Message); err != nil {
			return "", fmt.Errorf("inserting diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, created_at, file_count, diagnostic_count FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &created, &r.Files, &r.Diagnostics); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunDiagnostics returns the diagnostics recorded for one run.
func (s *Store) RunDiagnostics(runID string) ([]lint.Diagnostic, error) {
	rows, err := s.db.Query(
		`SELECT file, line, col, code, message FROM diagnostics WHERE run_id = ? ORDER BY file, line, col, code`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing diagnostics: %w", err)
	}
	defer rows.Close()

	var diags []lint.Diagnostic
	for rows.Next() {
		var d lint.Diagnostic
		if err := rows.Scan(&d.File, &d.Line, &d.Col, &d.RuleID, &d.Message); err != nil {
			return nil, fmt.Errorf("scanning diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}
