package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kamilpajak/reliability/pkg/models"
	"github.com/kamilpajak/reliability/pkg/scoring"
)

// Run represents a stored suite execution.
type Run struct {
	ID             uuid.UUID
	Suite          string
	SuiteLabel     string
	RequestedAt    time.Time
	GeneratedAt    *time.Time
	BenchmarkCount int
	Success        int
	Failed         int
	Threshold      float64
	Status         models.RunStatus
	Message        *string
}

// Entry converts the row into its wire shape.
func (r *Run) Entry() models.RunHistoryEntry {
	return models.RunHistoryEntry{
		ID:             r.ID.String(),
		Suite:          r.Suite,
		SuiteLabel:     r.SuiteLabel,
		RequestedAt:    r.RequestedAt,
		GeneratedAt:    r.GeneratedAt,
		BenchmarkCount: r.BenchmarkCount,
		Success:        r.Success,
		Failed:         r.Failed,
		Threshold:      r.Threshold,
		Status:         r.Status,
		Message:        r.Message,
	}
}

// CreateRunParams contains parameters for recording a requested run.
type CreateRunParams struct {
	Suite       string
	SuiteLabel  string
	Threshold   float64
	RequestedAt time.Time
}

// CompleteRunParams contains the outcome of a run.
type CompleteRunParams struct {
	ID             uuid.UUID
	GeneratedAt    *time.Time
	BenchmarkCount int
	Success        int
	Failed         int
	Message        *string
}

// ListRunsParams contains parameters for listing runs.
type ListRunsParams struct {
	Limit  int
	Offset int
}

const runColumns = `id, suite, suite_label, requested_at, generated_at, benchmark_count, success, failed, threshold, status, message`

func scanRun(row pgx.Row) (*Run, error) {
	var r Run
	var status string
	err := row.Scan(
		&r.ID, &r.Suite, &r.SuiteLabel, &r.RequestedAt, &r.GeneratedAt,
		&r.BenchmarkCount, &r.Success, &r.Failed, &r.Threshold, &status, &r.Message,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Status = models.RunStatus(status)
	return &r, nil
}

// CreateRun records a requested run. The threshold is fixed from here on.
func (db *DB) CreateRun(ctx context.Context, params CreateRunParams) (*Run, error) {
	requestedAt := params.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = time.Now().UTC()
	}
	row := db.pool.QueryRow(ctx,
		`INSERT INTO run_history (suite, suite_label, threshold, requested_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+runColumns,
		params.Suite, params.SuiteLabel, params.Threshold, requestedAt,
	)
	return scanRun(row)
}

// CompleteRun stores a run's outcome. Runs that already have a generated
// snapshot are immutable; completing one again returns nil.
func (db *DB) CompleteRun(ctx context.Context, params CompleteRunParams) (*Run, error) {
	status := scoring.RunStatus(params.Failed)
	row := db.pool.QueryRow(ctx,
		`UPDATE run_history
		 SET generated_at = $2, benchmark_count = $3, success = $4, failed = $5, status = $6, message = $7
		 WHERE id = $1 AND generated_at IS NULL
		 RETURNING `+runColumns,
		params.ID, params.GeneratedAt, params.BenchmarkCount, params.Success, params.Failed,
		string(status), params.Message,
	)
	return scanRun(row)
}

// GetRunByID retrieves a run by ID.
func (db *DB) GetRunByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM run_history WHERE id = $1`, id)
	return scanRun(row)
}

// ListRuns returns runs, newest request first.
func (db *DB) ListRuns(ctx context.Context, params ListRunsParams) ([]Run, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+runColumns+` FROM run_history
		 ORDER BY requested_at DESC
		 LIMIT $1 OFFSET $2`,
		params.Limit, params.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// CountRuns returns the number of stored runs.
func (db *DB) CountRuns(ctx context.Context) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM run_history`).Scan(&count)
	return count, err
}

// DeleteAllRuns wipes the run history and returns how many rows were removed.
func (db *DB) DeleteAllRuns(ctx context.Context) (int64, error) {
	result, err := db.pool.Exec(ctx, `DELETE FROM run_history`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
