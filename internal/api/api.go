// Package api provides the dashboard HTTP API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kamilpajak/reliability/internal/database"
	"github.com/kamilpajak/reliability/internal/metrics"
	"github.com/kamilpajak/reliability/internal/runner"
	"github.com/kamilpajak/reliability/internal/snapshot"
	"github.com/kamilpajak/reliability/internal/suites"
	"github.com/kamilpajak/reliability/internal/threshold"
	"github.com/kamilpajak/reliability/pkg/models"
	"golang.org/x/time/rate"
)

// Backend is the subset of the evaluation backend the API reads from directly.
type Backend interface {
	ListBenchmarks(ctx context.Context) ([]models.BenchmarkRecord, error)
	ListRuns(ctx context.Context) ([]models.RunHistoryEntry, error)
	ClearRuns(ctx context.Context) error
}

// RunHistory lists and clears stored runs.
type RunHistory interface {
	GetRunByID(ctx context.Context, id uuid.UUID) (*database.Run, error)
	ListRuns(ctx context.Context, params database.ListRunsParams) ([]database.Run, error)
	CountRuns(ctx context.Context) (int, error)
	DeleteAllRuns(ctx context.Context) (int64, error)
}

// EvaluationStore persists prompt evaluations.
type EvaluationStore interface {
	CreateEvaluation(ctx context.Context, params database.CreateEvaluationParams) (*models.Evaluation, error)
	GetEvaluationByID(ctx context.Context, id uuid.UUID) (*models.Evaluation, error)
	ListEvaluations(ctx context.Context, params database.ListEvaluationsParams) ([]models.Evaluation, error)
	ListEvaluationsSince(ctx context.Context, since time.Time) ([]models.Evaluation, error)
	CountEvaluations(ctx context.Context) (int, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the API server.
type Server struct {
	backend     Backend
	runner      *runner.Runner
	snapshots   *snapshot.Store
	thresholds  *threshold.Store
	runs        RunHistory
	evaluations EvaluationStore
	database    Pinger
	catalog     *suites.Catalog
	metrics     *metrics.Metrics
	logger      *slog.Logger
	corsOrigin  string
	runLimiter  *rate.Limiter
	mux         *http.ServeMux
}

// Config holds API server configuration. Runs and Evaluations are optional;
// without them run history is read from the backend and evaluation routes
// answer 503.
type Config struct {
	Backend     Backend
	Runner      *runner.Runner
	Thresholds  *threshold.Store
	Runs        RunHistory
	Evaluations EvaluationStore
	Database    Pinger
	Catalog     *suites.Catalog
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	CORSOrigin  string

	// RunRateLimit bounds suite triggers per second. Zero disables limiting.
	RunRateLimit float64
	RunBurst     int
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	s := &Server{
		backend:     cfg.Backend,
		runner:      cfg.Runner,
		thresholds:  cfg.Thresholds,
		runs:        cfg.Runs,
		evaluations: cfg.Evaluations,
		database:    cfg.Database,
		catalog:     cfg.Catalog,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		corsOrigin:  cfg.CORSOrigin,
		mux:         http.NewServeMux(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.catalog == nil {
		s.catalog = suites.Default()
	}
	if s.thresholds == nil {
		s.thresholds = threshold.NewStore(threshold.NewMemoryKV(), s.logger)
	}
	if s.corsOrigin == "" {
		s.corsOrigin = "*"
	}
	if s.runner != nil {
		s.snapshots = s.runner.Snapshots()
	} else {
		s.snapshots = snapshot.NewStore()
	}
	if cfg.RunRateLimit > 0 {
		burst := cfg.RunBurst
		if burst < 1 {
			burst = 1
		}
		s.runLimiter = rate.NewLimiter(rate.Limit(cfg.RunRateLimit), burst)
	}

	s.metrics.SetThreshold(s.thresholds.Get())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.mux.HandleFunc("GET /api/threshold", s.handleGetThreshold)
	s.mux.HandleFunc("PUT /api/threshold", s.handlePutThreshold)

	s.mux.HandleFunc("POST /api/benchmarks/refresh", s.handleRefreshBenchmarks)
	s.mux.HandleFunc("GET /api/benchmarks", s.handleListBenchmarks)
	s.mux.HandleFunc("GET /api/benchmarks/{id}", s.handleGetBenchmark)
	s.mux.HandleFunc("GET /api/insights", s.handleInsights)

	s.mux.HandleFunc("GET /api/suites", s.handleListSuites)
	s.mux.HandleFunc("POST /api/suites/run", s.handleRunSuite)
	s.mux.HandleFunc("GET /api/runs", s.handleListRuns)
	s.mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	s.mux.HandleFunc("DELETE /api/runs", s.handleClearRuns)

	s.mux.HandleFunc("POST /api/evaluations", s.handleCreateEvaluation)
	s.mux.HandleFunc("GET /api/evaluations", s.handleListEvaluations)
	s.mux.HandleFunc("GET /api/evaluations/{id}", s.handleGetEvaluation)
	s.mux.HandleFunc("GET /api/analytics/rollups", s.handleRollups)

	s.mux.HandleFunc("POST /api/iterations/compare", s.handleCompareIterations)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.database == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if err := s.database.Ping(r.Context()); err != nil {
		s.logger.Warn("database health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
