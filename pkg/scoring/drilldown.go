package scoring

import "github.com/kamilpajak/reliability/pkg/models"

// Failing keeps the objectives scoring strictly below the threshold. It is
// the exact complement of Classify.
func Failing(objectives []models.ObjectiveDetail, threshold float64) []models.ObjectiveDetail {
	out := make([]models.ObjectiveDetail, 0)
	for _, o := range objectives {
		if o.Score < threshold {
			out = append(out, o)
		}
	}
	return out
}

// Detail finds the objective with exactly the given name. An empty name or
// no match returns nil.
func Detail(objectives []models.ObjectiveDetail, name string) *models.ObjectiveDetail {
	if name == "" {
		return nil
	}
	for i := range objectives {
		if objectives[i].Name == name {
			o := objectives[i]
			return &o
		}
	}
	return nil
}

// FailingBenchmarks keeps the records whose success rate is below the
// threshold. The backend status is not consulted.
func FailingBenchmarks(records []models.BenchmarkRecord, threshold float64) []models.BenchmarkRecord {
	out := make([]models.BenchmarkRecord, 0)
	for _, r := range records {
		if r.SuccessRate < threshold {
			out = append(out, r)
		}
	}
	return out
}

// Dimension names of a score breakdown.
const (
	DimensionContent      = "content"
	DimensionStructure    = "structure"
	DimensionCompleteness = "completeness"
	DimensionAccuracy     = "accuracy"
	DimensionOverall      = "overall"
)

// Objectives expands a breakdown into one objective per dimension so every
// dimension goes through the same threshold rule.
func Objectives(b models.ScoreBreakdown) []models.ObjectiveDetail {
	return []models.ObjectiveDetail{
		{Name: DimensionContent, Score: b.Content},
		{Name: DimensionStructure, Score: b.Structure},
		{Name: DimensionCompleteness, Score: b.Completeness},
		{Name: DimensionAccuracy, Score: b.Accuracy},
		{Name: DimensionOverall, Score: Overall(b)},
	}
}

// Overall returns the judge-supplied overall score, or the mean of the four
// dimensions rounded to 4 places when the judge omitted it.
func Overall(b models.ScoreBreakdown) float64 {
	if b.Overall != nil {
		return *b.Overall
	}
	return round((b.Content+b.Structure+b.Completeness+b.Accuracy)/4, 4)
}
