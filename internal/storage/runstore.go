package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/weftworks/weft/internal/run"
)

// RunRecord is the persisted form of a completed (or in-flight) run
type RunRecord struct {
	ID          string           `json:"id"`
	Workflow    string           `json:"workflow"`
	Status      string           `json:"status"`
	FinalOutput string           `json:"final_output,omitempty"`
	Error       string           `json:"error,omitempty"`
	Context     map[string]any   `json:"context,omitempty"`
	Trace       []run.StepRecord `json:"trace,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at,omitempty"`
}

// RunStore persists run results and traces in SQLite for later
// inspection.
type RunStore struct {
	db *sql.DB
}

// OpenRunStore opens (creating if needed) a run store at the given
// database path.
func OpenRunStore(path string) (*RunStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create run store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return NewRunStore(db)
}

// NewRunStore initializes the schema on db and returns a store over it
func NewRunStore(db *sql.DB) (*RunStore, error) {
	s := &RunStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RunStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			workflow TEXT NOT NULL,
			status TEXT NOT NULL,
			final_output TEXT,
			error TEXT,
			context BLOB,
			trace BLOB,
			started_at TEXT NOT NULL,
			finished_at TEXT
		);`,
	)
	return err
}

// SaveRun inserts or replaces the record for a run
func (s *RunStore) SaveRun(rec *RunRecord) error {
	contextBlob, err := json.Marshal(rec.Context)
	if err != nil {
		return fmt.Errorf("failed to encode run context: %w", err)
	}
	traceBlob, err := json.Marshal(rec.Trace)
	if err != nil {
		return fmt.Errorf("failed to encode run trace: %w", err)
	}

	finished := ""
	if !rec.FinishedAt.IsZero() {
		finished = rec.FinishedAt.Format(time.RFC3339Nano)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO runs (id, workflow, status, final_output, error, context, trace, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Workflow,
		rec.Status,
		rec.FinalOutput,
		rec.Error,
		contextBlob,
		traceBlob,
		rec.StartedAt.Format(time.RFC3339Nano),
		finished,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
	}
	return nil
}

// GetRun returns the record for the given run ID
func (s *RunStore) GetRun(id string) (*RunRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, workflow, status, final_output, error, context, trace, started_at, finished_at
		FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", run.ErrRunNotFound, id)
	}
	return rec, err
}

// ListRuns returns the most recent runs, newest first, optionally
// filtered by workflow name.
func (s *RunStore) ListRuns(workflow string, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, workflow, status, final_output, error, context, trace, started_at, finished_at
		FROM runs`
	args := []any{}
	if workflow != "" {
		query += ` WHERE workflow = ?`
		args = append(args, workflow)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var recs []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close closes the underlying database
func (s *RunStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var contextBlob, traceBlob []byte
	var started, finished string

	err := row.Scan(
		&rec.ID,
		&rec.Workflow,
		&rec.Status,
		&rec.FinalOutput,
		&rec.Error,
		&contextBlob,
		&traceBlob,
		&started,
		&finished,
	)
	if err != nil {
		return nil, err
	}

	if len(contextBlob) > 0 {
		if err := json.Unmarshal(contextBlob, &rec.Context); err != nil {
			return nil, fmt.Errorf("failed to decode run context: %w", err)
		}
	}
	if len(traceBlob) > 0 {
		if err := json.Unmarshal(traceBlob, &rec.Trace); err != nil {
			return nil, fmt.Errorf("failed to decode run trace: %w", err)
		}
	}
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("failed to parse run start time: %w", err)
	}
	if finished != "" {
		if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("failed to parse run finish time: %w", err)
		}
	}
	return &rec, nil
}
