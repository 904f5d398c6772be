package models

import "time"

// SuiteRunRequest triggers a suite execution on the backend.
type SuiteRunRequest struct {
	Suite     string  `json:"suite" validate:"required"`
	Save      bool    `json:"save"`
	Threshold float64 `json:"threshold" validate:"gt=0,lte=1"`
}

// SuiteRunResponse is the backend's answer to a suite run. A non-empty
// Message marks a soft failure and the rest of the payload must be ignored.
type SuiteRunResponse struct {
	Benchmarks      []BenchmarkRecord `json:"benchmarks"`
	Summary         Summary           `json:"summary"`
	LiveRuns        []LiveRun         `json:"liveRuns"`
	FailureInsights []FailureInsight  `json:"failureInsights"`
	Recommendations []Recommendation  `json:"recommendations"`
	GeneratedAt     *time.Time        `json:"generatedAt,omitempty"`
	Message         string            `json:"message,omitempty"`
}

// RunStatus is the coarse outcome of one suite execution.
type RunStatus string

const (
	RunStatusSuccess        RunStatus = "success"
	RunStatusNeedsAttention RunStatus = "needs_attention"
)

// RunHistoryEntry records one suite execution. Threshold is captured when the
// run is requested and never changes afterwards. Message is set when the
// backend answered with a soft failure.
type RunHistoryEntry struct {
	ID             string     `json:"id"`
	Suite          string     `json:"suite"`
	SuiteLabel     string     `json:"suiteLabel"`
	RequestedAt    time.Time  `json:"requestedAt"`
	GeneratedAt    *time.Time `json:"generatedAt,omitempty"`
	BenchmarkCount int        `json:"benchmarkCount"`
	Success        int        `json:"success"`
	Failed         int        `json:"failed"`
	Threshold      float64    `json:"threshold"`
	Status         RunStatus  `json:"status"`
	Message        *string    `json:"message,omitempty"`
}
