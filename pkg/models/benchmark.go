package models

import "time"

// Status is the backend's own verdict for a benchmark snapshot.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the status is final for a snapshot.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Failure categories assigned to failing iterations.
const (
	CategoryFormat         = "format"
	CategoryUnsupported    = "unsupported"
	CategoryLogic          = "logic"
	CategoryInfrastructure = "infrastructure"
)

// BenchmarkRecord is one benchmark's latest snapshot as served by the backend.
type BenchmarkRecord struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	Suite                string         `json:"suite,omitempty"`
	Iterations           int            `json:"iterations"`
	SuccessRate          float64        `json:"successRate"`
	Status               Status         `json:"status"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	LatencySeconds       *float64       `json:"latencySeconds,omitempty"`
	TokensUsed           *float64       `json:"tokensUsed,omitempty"`
	CostUsd              *float64       `json:"costUsd,omitempty"`
	ConfidenceReported   *float64       `json:"confidenceReported,omitempty"`
	ConfidenceCalibrated *float64       `json:"confidenceCalibrated,omitempty"`
	ErrorFlags           []string       `json:"errorFlags,omitempty"`
	History              []HistoryEntry `json:"history,omitempty"`
	Inputs               map[string]any `json:"inputs,omitempty"`
	LatestFailure        *LatestFailure `json:"latestFailure,omitempty"`
}

// HistoryEntry is one per-iteration objective outcome. Entries are kept in
// insertion order, which is chronological.
type HistoryEntry struct {
	Timestamp       *time.Time `json:"timestamp,omitempty"`
	Objective       string     `json:"objective"`
	Result          bool       `json:"result"`
	Message         string     `json:"message,omitempty"`
	Expected        any        `json:"expected,omitempty"`
	Actual          any        `json:"actual,omitempty"`
	FailureCategory string     `json:"failureCategory,omitempty"`
	LatencySeconds  *float64   `json:"latencySeconds,omitempty"`
}

// LatestFailure summarizes the most recent failing iteration.
type LatestFailure struct {
	Objective string `json:"objective"`
	Reason    string `json:"reason"`
	Category  string `json:"category,omitempty"`
	Expected  any    `json:"expected,omitempty"`
	Actual    any    `json:"actual,omitempty"`
}

// Summary counts benchmarks by terminal status. Pending and running records
// only count toward Total.
type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// LiveRun is a benchmark execution still in flight on the backend.
type LiveRun struct {
	ID          string     `json:"id"`
	BenchmarkID string     `json:"benchmarkId"`
	Status      Status     `json:"status"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
}

// FailureInsight explains why a benchmark is not passing.
type FailureInsight struct {
	ID              string         `json:"id"`
	BenchmarkID     string         `json:"benchmarkId"`
	BenchmarkName   string         `json:"benchmarkName"`
	FailureRate     float64        `json:"failureRate"`
	LastFailureAt   time.Time      `json:"lastFailureAt"`
	TopIssues       []string       `json:"topIssues"`
	RecommendedFix  string         `json:"recommendedFix"`
	FailureCategory string         `json:"failureCategory,omitempty"`
	Inputs          map[string]any `json:"inputs,omitempty"`
	History         []HistoryEntry `json:"history,omitempty"`
}

// Recommendation is a suggested remediation for a failing benchmark.
type Recommendation struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Impact  string `json:"impact"`
	Summary string `json:"summary"`
	Action  string `json:"action"`
}
