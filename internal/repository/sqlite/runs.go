package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"stream-scheduler/internal/domain"
)

// RunRepository implements repository.RunRepository for SQLite
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new RunRepository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// RecordRun persists a run summary and its per-request results transactionally
func (r *RunRepository) RecordRun(ctx context.Context, summary *domain.RunSummary) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, finished_at, success_count, failure_count) VALUES (?, ?, ?, ?, ?)",
		summary.RunID,
		summary.StartedAt,
		summary.FinishedAt,
		len(summary.Successes()),
		len(summary.Failures()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, result := range summary.Results {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO run_results (id, run_id, position, title, success, link, error) VALUES (?, ?, ?, ?, ?, ?, ?)",
			uuid.NewString(),
			summary.RunID,
			i,
			result.Title,
			result.Success,
			result.Link,
			result.Err,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListRecent returns the most recent runs, newest first, with their results
// in request order
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*domain.RunSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.RunSummary
	for rows.Next() {
		var summary domain.RunSummary
		if err := rows.Scan(&summary.RunID, &summary.StartedAt, &summary.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	for _, summary := range summaries {
		results, err := r.loadResults(ctx, summary.RunID)
		if err != nil {
			return nil, err
		}
		summary.Results = results
	}

	return summaries, nil
}

// loadResults loads the results for one run in request order
func (r *RunRepository) loadResults(ctx context.Context, runID string) ([]domain.TransactionResult, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT title, success, link, error FROM run_results WHERE run_id = ? ORDER BY position",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query run results: %w", err)
	}
	defer rows.Close()

	var results []domain.TransactionResult
	for rows.Next() {
		var result domain.TransactionResult
		var link, errMsg sql.NullString
		if err := rows.Scan(&result.Title, &result.Success, &link, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run result: %w", err)
		}
		result.Link = link.String
		result.Err = errMsg.String
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run results: %w", err)
	}

	return results, nil
}
