package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunStatus is the final state of a run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunConflicts RunStatus = "conflicts"
	RunFailed    RunStatus = "failed"
)

// Run is one invocation of generate or batch.
type Run struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	Modules    []string  `json:"modules"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Files      []File    `json:"files,omitempty"`
}

// File is the outcome of one write in a run. Body is the rendered content and
// is stored compressed; it is not loaded back by Recent or Files.
type File struct {
	Module      string `json:"module"`
	Path        string `json:"path"`
	Status      string `json:"status"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Body        string `json:"-"`
}

// NewRun starts a run record for command.
func NewRun(command string) *Run {
	return &Run{
		ID:        uuid.New().String(),
		Command:   command,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the run with its outcome.
func (r *Run) Finish(status RunStatus, err error) {
	r.Status = status
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Error = err.Error()
	}
}

// Record stores r and its files in one transaction.
func (s *Store) Record(ctx context.Context, r *Run) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	modules, err := json.Marshal(r.Modules)
	if err != nil {
		return fmt.Errorf("failed to encode modules: %w", err)
	}

	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, command, modules, status, error, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, r.ID, r.Command, string(modules), string(r.Status), nullString(r.Error),
			r.StartedAt.Format(timeLayout), r.FinishedAt.Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO run_files (run_id, module, path, status, fingerprint, snapshot)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, f := range r.Files {
			if _, err := stmt.ExecContext(ctx, r.ID, f.Module, f.Path, f.Status, nullString(f.Fingerprint), s.compress(f.Body)); err != nil {
				return fmt.Errorf("failed to insert file %s: %w", f.Path, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("run recorded", "run", r.ID, "files", len(r.Files))
	return nil
}

// Recent returns up to limit runs, newest first, without their files.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, command, modules, status, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Get returns one run with its files, or nil when id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, command, modules, status, error, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if r.Files, err = s.Files(ctx, id); err != nil {
		return nil, err
	}
	return r, nil
}

// Files lists the files of a run in path order.
func (s *Store) Files(ctx context.Context, runID string) ([]File, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT module, path, status, fingerprint
		FROM run_files WHERE run_id = ?
		ORDER BY path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		var fp sql.NullString
		if err := rows.Scan(&f.Module, &f.Path, &f.Status, &fp); err != nil {
			return nil, err
		}
		f.Fingerprint = fp.String
		files = append(files, f)
	}
	return files, rows.Err()
}

// Snapshot returns the rendered body of path as written by a run.
func (s *Store) Snapshot(ctx context.Context, runID, path string) (string, error) {
	var data []byte
	err := s.conn.QueryRowContext(ctx, `
		SELECT snapshot FROM run_files WHERE run_id = ? AND path = ?
	`, runID, path).Scan(&data)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no snapshot of %s in run %s", path, runID)
	}
	if err != nil {
		return "", err
	}
	return s.decompress(data)
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	var removed int64
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
			)
		`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var modules, status, started, finished string
	var errText sql.NullString
	if err := sc.Scan(&r.ID, &r.Command, &modules, &status, &errText, &started, &finished); err != nil {
		return nil, err
	}
	r.Status = RunStatus(status)
	r.Error = errText.String
	if err := json.Unmarshal([]byte(modules), &r.Modules); err != nil {
		return nil, fmt.Errorf("run %s: corrupt module list: %w", r.ID, err)
	}
	var err error
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, err
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, err
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
