package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/TreyDong/notion-csv-importer/src/models"
)

// Ledger records finished import runs and their per-row failures.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) SaveRun(result *models.ImportResult) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning ledger transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO import_runs (run_id, filename, total, imported, skipped, failed, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.Filename, result.Total, result.Imported, result.Skipped, result.Failed,
		result.StartedAt.Format(time.RFC3339), result.FinishedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("error inserting import run %s: %w", result.RunID, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO import_row_failures (run_id, line, order_number, reason, detail) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing failure insert: %w", err)
	}
	defer stmt.Close()
	for _, f := range result.Failures {
		if _, err := stmt.Exec(result.RunID, f.Line, f.OrderNumber, string(f.Reason), f.Detail); err != nil {
			return fmt.Errorf("error inserting row failure (line %d): %w", f.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing ledger transaction: %w", err)
	}
	return nil
}

func (l *Ledger) ListRuns(limit int) ([]models.ImportResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(`SELECT run_id, filename, total, imported, skipped, failed, started_at, finished_at
		FROM import_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying import runs: %w", err)
	}
	defer rows.Close()

	var runs []models.ImportResult
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over import runs: %w", err)
	}
	if runs == nil {
		runs = []models.ImportResult{}
	}
	return runs, nil
}

func (l *Ledger) GetRun(runID string) (*models.ImportResult, error) {
	row := l.db.QueryRow(`SELECT run_id, filename, total, imported, skipped, failed, started_at, finished_at
		FROM import_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import run %s not found", runID)
	}
	if err != nil {
		return nil, err
	}

	failRows, err := l.db.Query(`SELECT line, order_number, reason, detail FROM import_row_failures WHERE run_id = ? ORDER BY line ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("error querying failures for run %s: %w", runID, err)
	}
	defer failRows.Close()
	run.Failures = []models.RowFailure{}
	for failRows.Next() {
		var f models.RowFailure
		var reason string
		if err := failRows.Scan(&f.Line, &f.OrderNumber, &reason, &f.Detail); err != nil {
			return nil, fmt.Errorf("error scanning failure for run %s: %w", runID, err)
		}
		f.Reason = models.FailureReason(reason)
		run.Failures = append(run.Failures, f)
	}
	if err := failRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over failures for run %s: %w", runID, err)
	}
	return &run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (models.ImportResult, error) {
	var run models.ImportResult
	var startedAt, finishedAt string
	if err := sc.Scan(&run.RunID, &run.Filename, &run.Total, &run.Imported, &run.Skipped, &run.Failed, &startedAt, &finishedAt); err != nil {
		if err == sql.ErrNoRows {
			return run, err
		}
		return run, fmt.Errorf("error scanning import run: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339, finishedAt); err == nil {
		run.FinishedAt = t
	}
	return run, nil
}
