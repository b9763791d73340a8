package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"easel/internal/job"
	"easel/internal/submit"
)

// Entry is one recorded job submission.
type Entry struct {
	ID             int64
	BatchID        string
	JobID          string
	Model          string
	Mode           job.Mode
	Operation      string
	Prompt         string
	NegativePrompt string
	Params         job.GenerationParams
	Seed           *uint32
	CreatedAt      time.Time
}

// Store is a local SQLite record of every submission the client has made.
// It is append-only apart from Clear.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS submissions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id TEXT NOT NULL,
    job_id TEXT NOT NULL,
    model TEXT NOT NULL,
    mode TEXT NOT NULL,
    operation TEXT NOT NULL,
    prompt TEXT NOT NULL DEFAULT '',
    negative_prompt TEXT NOT NULL DEFAULT '',
    params_json TEXT NOT NULL DEFAULT '{}',
    seed INTEGER,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_batch ON submissions(batch_id);
CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

// RecordBatch stores one row per accepted job from a submission. Failed
// issuances are not recorded; the backend never knew about them.
func (s *Store) RecordBatch(ctx context.Context, req submit.Request, result submit.Result) error {
	if len(result.Accepted) == 0 {
		return nil
	}

	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `
INSERT INTO submissions (batch_id, job_id, model, mode, operation, prompt, negative_prompt, params_json, seed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, accepted := range result.Accepted {
		var seed any
		if accepted.Seed != nil {
			seed = int64(*accepted.Seed)
		}
		if _, err := tx.ExecContext(ctx, insert,
			result.BatchID,
			accepted.JobID,
			accepted.Model,
			string(req.Mode),
			string(accepted.Operation),
			req.Prompt,
			req.NegativePrompt,
			string(paramsJSON),
			seed,
			now,
		); err != nil {
			return fmt.Errorf("record submission %s: %w", accepted.JobID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first, capped at limit.
// A non-positive limit returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
SELECT id, batch_id, job_id, model, mode, operation, prompt, negative_prompt, params_json, seed, created_at
FROM submissions
ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			mode       string
			paramsJSON string
			seed       sql.NullInt64
			createdAt  string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.BatchID,
			&entry.JobID,
			&entry.Model,
			&mode,
			&entry.Operation,
			&entry.Prompt,
			&entry.NegativePrompt,
			&paramsJSON,
			&seed,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entry.Mode = job.Mode(mode)
		if err := json.Unmarshal([]byte(paramsJSON), &entry.Params); err != nil {
			return nil, fmt.Errorf("decode params for entry %d: %w", entry.ID, err)
		}
		if seed.Valid {
			value := uint32(seed.Int64)
			entry.Seed = &value
		}
		if parsed, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			entry.CreatedAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}

// Clear deletes every recorded entry and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM submissions")
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared rows: %w", err)
	}
	return removed, nil
}
