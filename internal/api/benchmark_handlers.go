package api

import (
	"net/http"

	"github.com/kamilpajak/reliability/internal/snapshot"
)

// handleRefreshBenchmarks fetches the latest snapshot from the backend. When
// refreshes overlap only the last one issued is applied. Transport failures
// are reported with the backend's error text.
func (s *Server) handleRefreshBenchmarks(w http.ResponseWriter, r *http.Request) {
	if s.backend == nil {
		writeError(w, http.StatusServiceUnavailable, "backend not configured")
		return
	}

	applied, err := s.snapshots.Refresh(r.Context(), s.backend)
	s.metrics.BackendRequest("benchmarks", err)
	if err != nil {
		s.logger.Error("benchmark refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if !applied {
		s.logger.Debug("benchmark refresh superseded")
	}

	view := s.snapshots.View(s.thresholds.Get())
	s.publish(view)
	writeJSON(w, http.StatusOK, view)
}

// handleListBenchmarks renders the current snapshot at the requested or
// stored threshold.
func (s *Server) handleListBenchmarks(w http.ResponseWriter, r *http.Request) {
	t, err := s.thresholdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.snapshots.View(t))
}

func (s *Server) handleGetBenchmark(w http.ResponseWriter, r *http.Request) {
	rec := s.snapshots.Current().Find(r.PathValue("id"))
	if rec == nil {
		writeError(w, http.StatusNotFound, "benchmark not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	view := s.snapshots.View(s.thresholds.Get())
	writeJSON(w, http.StatusOK, map[string]any{
		"failureInsights": view.FailureInsights,
		"recommendations": view.Recommendations,
		"generatedAt":     view.GeneratedAt,
	})
}

func (s *Server) publish(view snapshot.View) {
	s.metrics.SetBenchmarks(len(view.Benchmarks)-len(view.Failing), len(view.Failing))
}
