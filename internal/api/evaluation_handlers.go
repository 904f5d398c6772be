package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/kamilpajak/reliability/internal/database"
	"github.com/kamilpajak/reliability/pkg/scoring"
)

type createEvaluationRequest struct {
	SystemPrompt     string         `json:"system_prompt" validate:"notblank"`
	UserPrompt       string         `json:"user_prompt" validate:"notblank"`
	Temperature      float64        `json:"temperature" validate:"gte=0,lte=2"`
	Model            string         `json:"model" validate:"required"`
	Response         string         `json:"response"`
	Score            *float64       `json:"score" validate:"required,gte=0,lte=1"`
	Note             string         `json:"note"`
	Breakdown        map[string]any `json:"scoring_breakdown"`
	LatencyMs        int            `json:"latency_ms" validate:"gte=0"`
	PromptTokens     *int           `json:"prompt_tokens" validate:"omitempty,gte=0"`
	CompletionTokens *int           `json:"completion_tokens" validate:"omitempty,gte=0"`
	TotalTokens      *int           `json:"total_tokens" validate:"omitempty,gte=0"`
	Mock             bool           `json:"mock_run"`
}

func (s *Server) handleCreateEvaluation(w http.ResponseWriter, r *http.Request) {
	if s.evaluations == nil {
		writeError(w, http.StatusServiceUnavailable, "evaluation storage not configured")
		return
	}

	var req createEvaluationRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	eval, err := s.evaluations.CreateEvaluation(r.Context(), database.CreateEvaluationParams{
		SystemPrompt:     strings.TrimSpace(req.SystemPrompt),
		UserPrompt:       strings.TrimSpace(req.UserPrompt),
		Temperature:      req.Temperature,
		Model:            req.Model,
		Response:         req.Response,
		Score:            *req.Score,
		Note:             req.Note,
		Breakdown:        req.Breakdown,
		LatencyMs:        req.LatencyMs,
		PromptTokens:     req.PromptTokens,
		CompletionTokens: req.CompletionTokens,
		TotalTokens:      req.TotalTokens,
		Mock:             req.Mock,
	})
	if err != nil {
		s.logger.Error("storing evaluation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store evaluation")
		return
	}

	writeJSON(w, http.StatusCreated, eval)
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	if s.evaluations == nil {
		writeError(w, http.StatusServiceUnavailable, "evaluation storage not configured")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid evaluation ID")
		return
	}
	eval, err := s.evaluations.GetEvaluationByID(r.Context(), id)
	if err != nil {
		s.logger.Error("loading evaluation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get evaluation")
		return
	}
	if eval == nil {
		writeError(w, http.StatusNotFound, "evaluation not found")
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	if s.evaluations == nil {
		writeError(w, http.StatusServiceUnavailable, "evaluation storage not configured")
		return
	}

	limit, offset := parsePagination(r)
	params := database.ListEvaluationsParams{Limit: limit, Offset: offset}
	if m := r.URL.Query().Get("model"); m != "" {
		params.Model = &m
	}

	evals, err := s.evaluations.ListEvaluations(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list evaluations")
		return
	}
	total, err := s.evaluations.CountEvaluations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count evaluations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"evaluations": evals,
		"total":       total,
	})
}

// handleRollups aggregates every stored evaluation at the requested or
// stored threshold.
func (s *Server) handleRollups(w http.ResponseWriter, r *http.Request) {
	if s.evaluations == nil {
		writeError(w, http.StatusServiceUnavailable, "evaluation storage not configured")
		return
	}

	t, err := s.thresholdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	evals, err := s.evaluations.ListEvaluationsSince(r.Context(), time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load evaluations")
		return
	}

	writeJSON(w, http.StatusOK, scoring.EvaluationRollups(evals, t))
}
