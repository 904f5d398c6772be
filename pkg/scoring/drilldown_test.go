package scoring

import (
	"testing"

	"github.com/kamilpajak/reliability/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailing_StrictInequality(t *testing.T) {
	objectives := []models.ObjectiveDetail{
		{Name: "content", Score: 0.9},
		{Name: "structure", Score: 0.7},
		{Name: "accuracy", Score: 0.69},
	}

	failing := Failing(objectives, 0.7)

	require.Len(t, failing, 1)
	assert.Equal(t, "accuracy", failing[0].Name)
}

func TestFailing_Empty(t *testing.T) {
	failing := Failing(nil, 0.7)
	assert.NotNil(t, failing)
	assert.Empty(t, failing)
}

func TestDetail(t *testing.T) {
	objectives := []models.ObjectiveDetail{
		{Name: "content", Score: 0.9},
		{Name: "Content", Score: 0.1},
	}

	got := Detail(objectives, "Content")
	require.NotNil(t, got)
	assert.Equal(t, 0.1, got.Score)

	assert.Nil(t, Detail(objectives, ""))
	assert.Nil(t, Detail(objectives, "missing"))
	assert.Nil(t, Detail(nil, "content"))
}

func TestFailingBenchmarks_IgnoresStatus(t *testing.T) {
	records := []models.BenchmarkRecord{
		{ID: "ok-but-low", Status: models.StatusSuccess, SuccessRate: 0.5},
		{ID: "failed-but-high", Status: models.StatusFailed, SuccessRate: 0.9},
	}

	failing := FailingBenchmarks(records, 0.7)

	require.Len(t, failing, 1)
	assert.Equal(t, "ok-but-low", failing[0].ID)
}

func TestObjectives(t *testing.T) {
	b := models.ScoreBreakdown{Content: 0.9, Structure: 0.8, Completeness: 0.6, Accuracy: 0.7}

	objectives := Objectives(b)

	require.Len(t, objectives, 5)
	assert.Equal(t, DimensionOverall, objectives[4].Name)
	assert.Equal(t, 0.75, objectives[4].Score)

	failing := Failing(objectives, 0.7)
	require.Len(t, failing, 1)
	assert.Equal(t, DimensionCompleteness, failing[0].Name)
}

func TestOverall(t *testing.T) {
	assert.Equal(t, 0.42, Overall(models.ScoreBreakdown{Content: 1, Overall: ptr(0.42)}))
	assert.Equal(t, 0.55, Overall(models.ScoreBreakdown{Content: 1, Structure: 0.5, Completeness: 0.5, Accuracy: 0.2}))
}
