// Package history persists analysis run summaries in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/panbanda/cppsmell/pkg/models"
	_ "modernc.org/sqlite"
)

// Table names for run tracking.
const (
	runsTable  = "cppsmell_runs"
	filesTable = "cppsmell_run_files"
)

// Run is one recorded analysis.
type Run struct {
	ID           int64                    `json:"id"`
	StartedAt    time.Time                `json:"started_at"`
	Ref          string                   `json:"ref,omitempty"`
	TotalFiles   int                      `json:"total_files"`
	TotalSmells  int                      `json:"total_smells"`
	FailedFiles  int                      `json:"failed_files"`
	SmellsByType map[models.SmellKind]int `json:"smells_by_type"`
}

// FileRecord is the per-file row of a run.
type FileRecord struct {
	FileName    string `json:"file_name"`
	ContentHash string `json:"content_hash"`
	SmellCount  int    `json:"smell_count"`
	Failed      bool   `json:"failed,omitempty"`
}

// Store records runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database at %q: %w", path, err)
	}
	// Limit SQLite to a single open connection to avoid "database is locked" errors
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database %q: %w", path, err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				started_at TEXT NOT NULL,
				ref TEXT,
				total_files INTEGER NOT NULL,
				total_smells INTEGER NOT NULL,
				failed_files INTEGER NOT NULL,
				smells_by_type TEXT NOT NULL
			);
		`, runsTable)},
		{filesTable, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				position INTEGER NOT NULL,
				file_name TEXT NOT NULL,
				content_hash TEXT,
				smell_count INTEGER NOT NULL,
				failed INTEGER NOT NULL,
				PRIMARY KEY (run_id, position)
			);
		`, filesTable)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// Record stores a run and its per-file rows in one transaction and returns
// the run ID.
func (s *Store) Record(ctx context.Context, startedAt time.Time, ref string, stats models.CorpusStats, results []models.FileResult) (int64, error) {
	byType, err := json.Marshal(stats.SmellsByType)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal smell counts: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (started_at, ref, total_files, total_smells, failed_files, smells_by_type) VALUES (?, ?, ?, ?, ?, ?)`, runsTable),
		startedAt.UTC().Format(time.RFC3339Nano), ref, stats.TotalFiles, stats.TotalSmells, stats.FailedFiles, string(byType))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (run_id, position, file_name, content_hash, smell_count, failed) VALUES (?, ?, ?, ?, ?, ?)`, filesTable))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.ExecContext(ctx, runID, i, r.FileName, r.ContentHash, len(r.Findings), r.Failed); err != nil {
			return 0, fmt.Errorf("failed to insert file %s: %w", r.FileName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT run_id, started_at, ref, total_files, total_smells, failed_files, smells_by_type FROM %s ORDER BY run_id DESC LIMIT ?`, runsTable),
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run     Run
			started string
			ref     sql.NullString
			byType  string
		)
		if err := rows.Scan(&run.ID, &started, &ref, &run.TotalFiles, &run.TotalSmells, &run.FailedFiles, &byType); err != nil {
			return nil, err
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		run.Ref = ref.String
		if err := json.Unmarshal([]byte(byType), &run.SmellsByType); err != nil {
			return nil, fmt.Errorf("failed to parse smell counts: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Files returns the per-file rows of a run in their recorded order.
func (s *Store) Files(ctx context.Context, runID int64) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT file_name, content_hash, smell_count, failed FROM %s WHERE run_id = ? ORDER BY position`, filesTable),
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var (
			f    FileRecord
			hash sql.NullString
		)
		if err := rows.Scan(&f.FileName, &hash, &f.SmellCount, &f.Failed); err != nil {
			return nil, err
		}
		f.ContentHash = hash.String
		files = append(files, f)
	}
	return files, rows.Err()
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}
