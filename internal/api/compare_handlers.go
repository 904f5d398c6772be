package api

import (
	"net/http"

	"github.com/kamilpajak/reliability/pkg/models"
	"github.com/kamilpajak/reliability/pkg/scoring"
)

type compareRequest struct {
	Iterations []models.Iteration `json:"iterations" validate:"dive"`
	Threshold  *float64           `json:"threshold" validate:"omitempty,gt=0,lte=1"`
	// Selected is an iteration id; empty selects the leader.
	Selected string `json:"selected"`
	// Objective names the drilldown target within the selected iteration.
	Objective string `json:"objective"`
}

type objectiveVerdict struct {
	Name    string          `json:"name"`
	Score   float64         `json:"score"`
	Verdict scoring.Verdict `json:"verdict"`
}

type iterationComparison struct {
	ID         string             `json:"id"`
	Label      string             `json:"label"`
	Overall    float64            `json:"overall"`
	Objectives []objectiveVerdict `json:"objectives"`
	Failing    []string           `json:"failing"`
}

type compareResponse struct {
	Threshold   float64                  `json:"threshold"`
	LeaderIndex int                      `json:"leaderIndex"`
	Leader      *models.Iteration        `json:"leader"`
	Iterations  []iterationComparison    `json:"iterations"`
	Selected    *models.Iteration        `json:"selected"`
	Failing     []models.ObjectiveDetail `json:"failing"`
	Detail      *models.ObjectiveDetail  `json:"detail"`
}

// handleCompareIterations ranks a set of iterations, classifies each score
// dimension and drills into the failing objectives of one of them.
func (s *Server) handleCompareIterations(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := s.thresholds.Get()
	if req.Threshold != nil {
		t = *req.Threshold
	}

	resp := compareIterations(req.Iterations, t, req.Selected, req.Objective)
	if req.Selected != "" && resp.Selected == nil {
		writeError(w, http.StatusNotFound, "iteration not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func compareIterations(iterations []models.Iteration, threshold float64, selected, objective string) compareResponse {
	resp := compareResponse{
		Threshold:   threshold,
		LeaderIndex: scoring.Leader(iterations),
		Iterations:  make([]iterationComparison, 0, len(iterations)),
		Failing:     []models.ObjectiveDetail{},
	}
	if resp.LeaderIndex >= 0 {
		resp.Leader = &iterations[resp.LeaderIndex]
	}

	for i := range iterations {
		it := &iterations[i]
		objectives := scoring.Objectives(it.Scores)
		cmp := iterationComparison{
			ID:         it.ID,
			Label:      it.Label,
			Overall:    scoring.Overall(it.Scores),
			Objectives: make([]objectiveVerdict, 0, len(objectives)),
			Failing:    []string{},
		}
		for _, o := range objectives {
			cmp.Objectives = append(cmp.Objectives, objectiveVerdict{
				Name:    o.Name,
				Score:   o.Score,
				Verdict: scoring.Classify(o.Score, threshold),
			})
		}
		for _, o := range scoring.Failing(objectives, threshold) {
			cmp.Failing = append(cmp.Failing, o.Name)
		}
		resp.Iterations = append(resp.Iterations, cmp)

		if selected != "" && it.ID == selected {
			resp.Selected = it
		}
	}
	if selected == "" {
		resp.Selected = resp.Leader
	}

	if resp.Selected != nil {
		objectives := scoring.Objectives(resp.Selected.Scores)
		resp.Failing = scoring.Failing(objectives, threshold)
		resp.Detail = scoring.Detail(resp.Failing, objective)
	}
	return resp
}
