// Package runner executes benchmark suites against the backend, applies the
// result to the snapshot store and records the run in history.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kamilpajak/reliability/internal/database"
	"github.com/kamilpajak/reliability/internal/metrics"
	"github.com/kamilpajak/reliability/internal/progress"
	"github.com/kamilpajak/reliability/internal/snapshot"
	"github.com/kamilpajak/reliability/internal/suites"
	"github.com/kamilpajak/reliability/pkg/models"
	"github.com/kamilpajak/reliability/pkg/scoring"
)

var validate = validator.New()

// ErrInvalidRequest is wrapped by errors caused by a malformed run request.
var ErrInvalidRequest = errors.New("invalid run request")

// SoftFailureError is returned when the backend answers a run with a message
// instead of results. The snapshot has already been reset when it is returned.
type SoftFailureError struct {
	Suite   string
	Message string
	Run     models.RunHistoryEntry
}

func (e *SoftFailureError) Error() string {
	return fmt.Sprintf("suite %s: %s", e.Suite, e.Message)
}

// IsSoftFailure reports whether err is a SoftFailureError.
func IsSoftFailure(err error) bool {
	var sf *SoftFailureError
	return errors.As(err, &sf)
}

// Backend executes suites.
type Backend interface {
	RunSuite(ctx context.Context, req models.SuiteRunRequest) (*models.SuiteRunResponse, error)
}

// RunStore persists run history.
type RunStore interface {
	CreateRun(ctx context.Context, params database.CreateRunParams) (*database.Run, error)
	CompleteRun(ctx context.Context, params database.CompleteRunParams) (*database.Run, error)
}

// Options configures a Runner. Every field is optional.
type Options struct {
	Catalog   *suites.Catalog
	Snapshots *snapshot.Store
	Runs      RunStore
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// Runner drives suite runs.
type Runner struct {
	backend   Backend
	catalog   *suites.Catalog
	snapshots *snapshot.Store
	runs      RunStore
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Runner.
func New(backend Backend, opts Options) *Runner {
	r := &Runner{
		backend:   backend,
		catalog:   opts.Catalog,
		snapshots: opts.Snapshots,
		runs:      opts.Runs,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if r.catalog == nil {
		r.catalog = suites.Default()
	}
	if r.snapshots == nil {
		r.snapshots = snapshot.NewStore()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Snapshots returns the store the runner commits to.
func (r *Runner) Snapshots() *snapshot.Store {
	return r.snapshots
}

// Result is the outcome of a completed run.
type Result struct {
	Run      models.RunHistoryEntry
	Response *models.SuiteRunResponse
	// Applied is false when a newer fetch superseded this run.
	Applied bool
}

// Run executes one suite. An empty suite selects the catalog default. Soft
// failures are reported as *SoftFailureError.
func (r *Runner) Run(ctx context.Context, req models.SuiteRunRequest, emit progress.Emitter) (*Result, error) {
	if emit == nil {
		emit = progress.Nop{}
	}

	suite, err := r.catalog.Resolve(req.Suite)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Suite = suite.ID
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	start := r.now()
	entry, err := r.begin(ctx, suite, req.Threshold, start.UTC())
	if err != nil {
		return nil, err
	}
	log := r.logger.With("suite", suite.ID, "run_id", entry.ID)
	log.Info("suite run requested", "threshold", req.Threshold, "save", req.Save)
	emit.Emit(progress.Event{Type: progress.TypeRequested, Suite: suite.ID, RunID: entry.ID})

	ticket := r.snapshots.Begin()
	emit.Emit(progress.Event{Type: progress.TypeRunning, Suite: suite.ID, RunID: entry.ID, Message: "Running " + suite.Label})

	resp, err := r.backend.RunSuite(ctx, req)
	r.metrics.BackendRequest("run", err)
	if err != nil {
		r.discarded(r.snapshots.Fail(ticket, suite.ID, err), log)
		msg := err.Error()
		entry = r.complete(ctx, entry, completion{message: &msg}, log)
		r.metrics.SuiteRun(suite.ID, "error", r.now().Sub(start))
		log.Error("suite run failed", "error", err)
		emit.Emit(progress.Event{Type: progress.TypeError, Suite: suite.ID, RunID: entry.ID, Message: msg, Run: &entry})
		return nil, fmt.Errorf("running suite %s: %w", suite.ID, err)
	}

	if resp.Message != "" {
		r.discarded(r.snapshots.Commit(ticket, suite.ID, resp), log)
		msg := resp.Message
		entry = r.complete(ctx, entry, completion{message: &msg}, log)
		r.metrics.SuiteRun(suite.ID, "soft_failure", r.now().Sub(start))
		log.Warn("suite run returned no results", "message", msg)
		emit.Emit(progress.Event{Type: progress.TypeError, Suite: suite.ID, RunID: entry.ID, Message: msg, Run: &entry})
		return nil, &SoftFailureError{Suite: suite.ID, Message: msg, Run: entry}
	}

	if resp.Benchmarks == nil {
		resp.Benchmarks = []models.BenchmarkRecord{}
	}
	resp.Benchmarks = scoring.Enrich(resp.Benchmarks)
	resp.Summary = scoring.Aggregate(resp.Benchmarks)
	if resp.LiveRuns == nil {
		resp.LiveRuns = []models.LiveRun{}
	}
	if resp.FailureInsights == nil {
		resp.FailureInsights = scoring.DeriveInsights(resp.Benchmarks, r.now().UTC())
	}
	if resp.Recommendations == nil {
		resp.Recommendations = scoring.DeriveRecommendations(resp.Benchmarks)
	}
	if resp.GeneratedAt == nil {
		at := r.now().UTC()
		resp.GeneratedAt = &at
	}
	applied := r.snapshots.Commit(ticket, suite.ID, resp)
	r.discarded(applied, log)

	entry = r.complete(ctx, entry, completion{
		generatedAt: resp.GeneratedAt,
		count:       len(resp.Benchmarks),
		success:     resp.Summary.Success,
		failed:      resp.Summary.Failed,
	}, log)
	r.metrics.SuiteRun(suite.ID, string(entry.Status), r.now().Sub(start))
	log.Info("suite run completed",
		"benchmarks", len(resp.Benchmarks),
		"success", resp.Summary.Success,
		"failed", resp.Summary.Failed,
		"applied", applied,
	)
	emit.Emit(progress.Event{Type: progress.TypeDone, Suite: suite.ID, RunID: entry.ID, Summary: &resp.Summary, Run: &entry})

	return &Result{Run: entry, Response: resp, Applied: applied}, nil
}

func (r *Runner) begin(ctx context.Context, suite suites.Suite, threshold float64, at time.Time) (models.RunHistoryEntry, error) {
	if r.runs == nil {
		return models.RunHistoryEntry{
			ID:          uuid.NewString(),
			Suite:       suite.ID,
			SuiteLabel:  suite.Label,
			RequestedAt: at,
			Threshold:   threshold,
			Status:      models.RunStatusSuccess,
		}, nil
	}
	run, err := r.runs.CreateRun(ctx, database.CreateRunParams{
		Suite:       suite.ID,
		SuiteLabel:  suite.Label,
		Threshold:   threshold,
		RequestedAt: at,
	})
	if err != nil {
		return models.RunHistoryEntry{}, fmt.Errorf("recording run: %w", err)
	}
	return run.Entry(), nil
}

type completion struct {
	generatedAt *time.Time
	count       int
	success     int
	failed      int
	message     *string
}

// complete finalises the history entry. Persistence errors are logged and the
// in-memory entry is returned so the run result is not lost.
func (r *Runner) complete(ctx context.Context, entry models.RunHistoryEntry, c completion, log *slog.Logger) models.RunHistoryEntry {
	entry.GeneratedAt = c.generatedAt
	entry.BenchmarkCount = c.count
	entry.Success = c.success
	entry.Failed = c.failed
	entry.Status = scoring.RunStatus(c.failed)
	entry.Message = c.message

	if r.runs == nil {
		return entry
	}
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		log.Error("invalid run id", "error", err)
		return entry
	}
	run, err := r.runs.CompleteRun(ctx, database.CompleteRunParams{
		ID:             id,
		GeneratedAt:    c.generatedAt,
		BenchmarkCount: c.count,
		Success:        c.success,
		Failed:         c.failed,
		Message:        c.message,
	})
	if err != nil {
		log.Error("failed to complete run", "error", err)
		return entry
	}
	if run == nil {
		return entry
	}
	return run.Entry()
}

func (r *Runner) discarded(applied bool, log *slog.Logger) {
	if !applied {
		log.Debug("stale run result discarded")
	}
}
