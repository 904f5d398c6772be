package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kamilpajak/reliability/pkg/models"
)

// CreateEvaluationParams contains parameters for storing an evaluation.
type CreateEvaluationParams struct {
	SystemPrompt     string
	UserPrompt       string
	Temperature      float64
	Model            string
	Response         string
	Score            float64
	Note             string
	Breakdown        map[string]any
	LatencyMs        int
	PromptTokens     *int
	CompletionTokens *int
	TotalTokens      *int
	Mock             bool
}

// ListEvaluationsParams contains parameters for listing evaluations.
type ListEvaluationsParams struct {
	Limit  int
	Offset int
	Model  *string
}

const evaluationColumns = `id, created_at, system_prompt, user_prompt, temperature, model, response, score, note, breakdown, latency_ms, prompt_tokens, completion_tokens, total_tokens, mock_run`

// scanEvaluation scans a row and unmarshals the breakdown JSON.
func scanEvaluation(row pgx.Row) (*models.Evaluation, error) {
	var e models.Evaluation
	var id uuid.UUID
	var breakdownJSON []byte
	err := row.Scan(
		&id, &e.CreatedAt, &e.SystemPrompt, &e.UserPrompt, &e.Temperature, &e.Model, &e.Response,
		&e.Score, &e.Note, &breakdownJSON, &e.LatencyMs, &e.PromptTokens, &e.CompletionTokens,
		&e.TotalTokens, &e.Mock,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.ID = id.String()
	if breakdownJSON != nil {
		if err := json.Unmarshal(breakdownJSON, &e.Breakdown); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func collectEvaluations(rows pgx.Rows) ([]models.Evaluation, error) {
	defer rows.Close()
	evals := make([]models.Evaluation, 0)
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evals = append(evals, *e)
	}
	return evals, rows.Err()
}

// CreateEvaluation stores a scored prompt evaluation.
func (db *DB) CreateEvaluation(ctx context.Context, params CreateEvaluationParams) (*models.Evaluation, error) {
	var breakdownJSON []byte
	if params.Breakdown != nil {
		var err error
		breakdownJSON, err = json.Marshal(params.Breakdown)
		if err != nil {
			return nil, err
		}
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO evaluations (system_prompt, user_prompt, temperature, model, response, score, note,
		                          breakdown, latency_ms, prompt_tokens, completion_tokens, total_tokens, mock_run)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+evaluationColumns,
		params.SystemPrompt, params.UserPrompt, params.Temperature, params.Model, params.Response,
		params.Score, params.Note, breakdownJSON, params.LatencyMs, params.PromptTokens,
		params.CompletionTokens, params.TotalTokens, params.Mock,
	)
	return scanEvaluation(row)
}

// GetEvaluationByID retrieves an evaluation by ID.
func (db *DB) GetEvaluationByID(ctx context.Context, id uuid.UUID) (*models.Evaluation, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id)
	return scanEvaluation(row)
}

// ListEvaluations returns evaluations, newest first.
func (db *DB) ListEvaluations(ctx context.Context, params ListEvaluationsParams) ([]models.Evaluation, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}

	var rows pgx.Rows
	var err error
	if params.Model != nil {
		rows, err = db.pool.Query(ctx,
			`SELECT `+evaluationColumns+` FROM evaluations
			 WHERE model = $1
			 ORDER BY created_at DESC
			 LIMIT $2 OFFSET $3`,
			*params.Model, params.Limit, params.Offset,
		)
	} else {
		rows, err = db.pool.Query(ctx,
			`SELECT `+evaluationColumns+` FROM evaluations
			 ORDER BY created_at DESC
			 LIMIT $1 OFFSET $2`,
			params.Limit, params.Offset,
		)
	}
	if err != nil {
		return nil, err
	}
	return collectEvaluations(rows)
}

// ListEvaluationsSince returns every evaluation created at or after since,
// oldest first. A zero since returns all of them.
func (db *DB) ListEvaluationsSince(ctx context.Context, since time.Time) ([]models.Evaluation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations
		 WHERE created_at >= $1
		 ORDER BY created_at ASC`,
		since,
	)
	if err != nil {
		return nil, err
	}
	return collectEvaluations(rows)
}

// CountEvaluations returns the number of stored evaluations.
func (db *DB) CountEvaluations(ctx context.Context) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM evaluations`).Scan(&count)
	return count, err
}

// DeleteEvaluation removes an evaluation.
func (db *DB) DeleteEvaluation(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM evaluations WHERE id = $1`, id)
	return err
}
