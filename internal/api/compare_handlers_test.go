package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kamilpajak/reliability/pkg/models"
	"github.com/kamilpajak/reliability/pkg/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIterations() []models.Iteration {
	return []models.Iteration{
		{ID: "a", Label: "Baseline", Scores: models.ScoreBreakdown{Content: 0.8, Structure: 0.6, Completeness: 0.9, Accuracy: 0.7, Overall: ptr(0.75)}},
		{ID: "b", Label: "Structured", Scores: models.ScoreBreakdown{Content: 0.9, Structure: 0.9, Completeness: 0.5, Accuracy: 0.9, Overall: ptr(0.9)}},
		{ID: "c", Label: "Verbose", Scores: models.ScoreBreakdown{Content: 0.9, Structure: 0.9, Completeness: 0.9, Accuracy: 0.9, Overall: ptr(0.9)}},
	}
}

func TestCompareIterations(t *testing.T) {
	resp := compareIterations(sampleIterations(), 0.7, "", "completeness")

	assert.Equal(t, 1, resp.LeaderIndex, "first of the tied maxima wins")
	require.NotNil(t, resp.Leader)
	assert.Equal(t, "b", resp.Leader.ID)
	assert.Equal(t, resp.Leader, resp.Selected)

	require.Len(t, resp.Iterations, 3)
	assert.Equal(t, []string{"structure"}, resp.Iterations[0].Failing)
	assert.Equal(t, []string{"completeness"}, resp.Iterations[1].Failing)
	assert.Empty(t, resp.Iterations[2].Failing)

	var accuracy objectiveVerdict
	for _, o := range resp.Iterations[0].Objectives {
		if o.Name == scoring.DimensionAccuracy {
			accuracy = o
		}
	}
	assert.Equal(t, scoring.Pass, accuracy.Verdict, "score equal to threshold passes")

	require.Len(t, resp.Failing, 1)
	require.NotNil(t, resp.Detail)
	assert.Equal(t, 0.5, resp.Detail.Score)
}

func TestCompareIterations_SelectedAndMissingDetail(t *testing.T) {
	resp := compareIterations(sampleIterations(), 0.7, "a", "content")

	require.NotNil(t, resp.Selected)
	assert.Equal(t, "a", resp.Selected.ID)
	assert.Len(t, resp.Failing, 1)
	assert.Nil(t, resp.Detail, "content is not failing")
}

func TestCompareIterations_Empty(t *testing.T) {
	resp := compareIterations(nil, 0.7, "", "")

	assert.Equal(t, -1, resp.LeaderIndex)
	assert.Nil(t, resp.Leader)
	assert.Nil(t, resp.Selected)
	assert.NotNil(t, resp.Failing)
	assert.Empty(t, resp.Iterations)
}

func TestCompareEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := do(t, env.server, http.MethodPost, "/api/iterations/compare", map[string]any{
		"iterations": sampleIterations(),
		"threshold":  0.95,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.JSONEq(t, "0.95", string(resp["threshold"]))
	assert.JSONEq(t, "1", string(resp["leaderIndex"]))
	assert.Contains(t, string(resp["iterations"]), `"verdict":"fail"`)

	t.Run("unknown selection", func(t *testing.T) {
		rec := do(t, env.server, http.MethodPost, "/api/iterations/compare", map[string]any{
			"iterations": sampleIterations(),
			"selected":   "zzz",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		rec := do(t, env.server, http.MethodPost, "/api/iterations/compare", map[string]any{
			"iterations": sampleIterations(),
			"threshold":  1.2,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
