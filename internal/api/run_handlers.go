package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kamilpajak/reliability/internal/database"
	"github.com/kamilpajak/reliability/internal/progress"
	"github.com/kamilpajak/reliability/internal/runner"
	"github.com/kamilpajak/reliability/pkg/models"
)

// runResponse is a suite run result together with its history entry.
type runResponse struct {
	models.SuiteRunResponse
	Run       models.RunHistoryEntry `json:"run"`
	Threshold float64                `json:"threshold"`
}

func (s *Server) handleListSuites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"suites": s.catalog.Suites})
}

// handleRunSuite triggers a suite run. Clients sending
// Accept: text/event-stream receive progress events instead of a single body.
func (s *Server) handleRunSuite(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "suite runner not configured")
		return
	}
	if s.runLimiter != nil && !s.runLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many suite runs, try again shortly")
		return
	}

	var req models.SuiteRunRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Threshold == 0 {
		req.Threshold = s.thresholds.Get()
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		if emitter := progress.NewSSEEmitter(w); emitter != nil {
			s.streamRun(w, r, req, emitter)
			return
		}
	}

	res, err := s.runner.Run(r.Context(), req, nil)
	if err != nil {
		s.writeRunError(w, req, err)
		return
	}
	s.publish(s.snapshots.View(req.Threshold))
	writeJSON(w, http.StatusOK, runResponse{
		SuiteRunResponse: *res.Response,
		Run:              res.Run,
		Threshold:        req.Threshold,
	})
}

func (s *Server) streamRun(w http.ResponseWriter, r *http.Request, req models.SuiteRunRequest, emitter *progress.SSEEmitter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	_, err := s.runner.Run(r.Context(), req, emitter)
	switch {
	case err == nil:
		s.publish(s.snapshots.View(req.Threshold))
	case errors.Is(err, runner.ErrInvalidRequest):
		// Rejected before any event was sent.
		emitter.Emit(progress.Event{Type: progress.TypeError, Suite: req.Suite, Message: err.Error()})
	default:
		s.logger.Warn("streamed suite run ended with error", "suite", req.Suite, "error", err)
	}
}

func (s *Server) writeRunError(w http.ResponseWriter, req models.SuiteRunRequest, err error) {
	var sf *runner.SoftFailureError
	switch {
	case errors.Is(err, runner.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &sf):
		writeJSON(w, http.StatusOK, runResponse{
			SuiteRunResponse: models.SuiteRunResponse{
				Benchmarks:      []models.BenchmarkRecord{},
				LiveRuns:        []models.LiveRun{},
				FailureInsights: []models.FailureInsight{},
				Recommendations: []models.Recommendation{},
				Message:         sf.Message,
			},
			Run:       sf.Run,
			Threshold: req.Threshold,
		})
	default:
		s.logger.Error("suite run failed", "suite", req.Suite, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

// handleListRuns returns run history, newest first. Without a database the
// backend's own history is returned.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.listBackendRuns(w, r)
		return
	}

	limit, offset := parsePagination(r)
	runs, err := s.runs.ListRuns(r.Context(), database.ListRunsParams{Limit: limit, Offset: offset})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	total, err := s.runs.CountRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count runs")
		return
	}

	entries := make([]models.RunHistoryEntry, 0, len(runs))
	for i := range runs {
		entries = append(entries, runs[i].Entry())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  entries,
		"total": total,
	})
}

// handleGetRun returns one run. Without a database the backend's history is
// searched.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.getBackendRun(w, r)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run ID")
		return
	}
	run, err := s.runs.GetRunByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run.Entry())
}

func (s *Server) getBackendRun(w http.ResponseWriter, r *http.Request) {
	if s.backend == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	runs, err := s.backend.ListRuns(r.Context())
	s.metrics.BackendRequest("runs", err)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	id := r.PathValue("id")
	for i := range runs {
		if runs[i].ID == id {
			writeJSON(w, http.StatusOK, runs[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "run not found")
}

func (s *Server) listBackendRuns(w http.ResponseWriter, r *http.Request) {
	if s.backend == nil {
		writeJSON(w, http.StatusOK, map[string]any{"runs": []models.RunHistoryEntry{}, "total": 0})
		return
	}
	runs, err := s.backend.ListRuns(r.Context())
	s.metrics.BackendRequest("runs", err)
	if err != nil {
		s.logger.Error("listing backend runs failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if runs == nil {
		runs = []models.RunHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "total": len(runs)})
}

// handleClearRuns irreversibly deletes all run history, locally and on the
// backend.
func (s *Server) handleClearRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs != nil {
		n, err := s.runs.DeleteAllRuns(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to clear runs")
			return
		}
		s.logger.Info("run history cleared", "deleted", n)
	}
	if s.backend != nil {
		err := s.backend.ClearRuns(r.Context())
		s.metrics.BackendRequest("clear", err)
		if err != nil {
			s.logger.Error("clearing backend runs failed", "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
