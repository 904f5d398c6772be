package models

import "time"

// ScoreBreakdown is the judge output for one iteration. Overall is supplied by
// the judge and is not required to equal the mean of the dimensions.
type ScoreBreakdown struct {
	Content      float64  `json:"content"`
	Structure    float64  `json:"structure"`
	Completeness float64  `json:"completeness"`
	Accuracy     float64  `json:"accuracy"`
	Overall      *float64 `json:"overall,omitempty"`
}

// Iteration is one agent/prompt variant in a comparison set.
type Iteration struct {
	ID              string         `json:"id"`
	Label           string         `json:"label"`
	Strategy        string         `json:"strategy,omitempty"`
	Model           string         `json:"model,omitempty"`
	RunSeconds      *float64       `json:"run_seconds,omitempty"`
	AvgOutputTokens *float64       `json:"avg_output_tokens,omitempty"`
	Scores          ScoreBreakdown `json:"scores"`
}

// ObjectiveDetail is a single scored check shown in the failure drilldown.
type ObjectiveDetail struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Notes    string  `json:"notes,omitempty"`
	Expected any     `json:"expected,omitempty"`
	Actual   any     `json:"actual,omitempty"`
}

// Evaluation is a stored prompt evaluation scored by the judge.
type Evaluation struct {
	ID               string         `json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	SystemPrompt     string         `json:"system_prompt"`
	UserPrompt       string         `json:"user_prompt"`
	Temperature      float64        `json:"temperature"`
	Model            string         `json:"model"`
	Response         string         `json:"response"`
	Score            float64        `json:"score"`
	Note             string         `json:"note"`
	Breakdown        map[string]any `json:"scoring_breakdown,omitempty"`
	LatencyMs        int            `json:"latency_ms"`
	PromptTokens     *int           `json:"prompt_tokens,omitempty"`
	CompletionTokens *int           `json:"completion_tokens,omitempty"`
	TotalTokens      *int           `json:"total_tokens,omitempty"`
	Mock             bool           `json:"mock_run"`
}

// ModelStats is the per-model rollup of evaluations.
type ModelStats struct {
	Model        string     `json:"model"`
	AverageScore float64    `json:"average_score"`
	RunCount     int        `json:"run_count"`
	LastRun      *time.Time `json:"last_run,omitempty"`
}

// DailyScore is one UTC calendar day bucket.
type DailyScore struct {
	Date         string  `json:"date"`
	AverageScore float64 `json:"average_score"`
	RunCount     int     `json:"run_count"`
}

// Rollups is the analytics view over stored evaluations.
type Rollups struct {
	TotalRuns      int          `json:"total_runs"`
	AverageScore   float64      `json:"average_score"`
	SuccessRate    float64      `json:"success_rate"`
	MockRuns       int          `json:"mock_runs"`
	Threshold      float64      `json:"threshold"`
	ModelBreakdown []ModelStats `json:"model_breakdown"`
	DailyScores    []DailyScore `json:"daily_scores"`
}
