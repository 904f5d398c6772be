package scoring

import (
	"sort"
	"time"

	"github.com/kamilpajak/reliability/pkg/models"
)

// Aggregate counts records by terminal status.
func Aggregate(records []models.BenchmarkRecord) models.Summary {
	s := models.Summary{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case models.StatusSuccess:
			s.Success++
		case models.StatusFailed:
			s.Failed++
		}
	}
	return s
}

// LeaderBy returns the index of the first item holding the maximum score,
// or -1 when items is empty. Ties keep the earliest item.
func LeaderBy[T any](items []T, score func(T) float64) int {
	best := -1
	var bestScore float64
	for i, item := range items {
		s := score(item)
		if best == -1 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// Leader picks the iteration with the highest overall score.
func Leader(iterations []models.Iteration) int {
	return LeaderBy(iterations, func(it models.Iteration) float64 {
		return Overall(it.Scores)
	})
}

// Group is a rollup of the values sharing one key.
type Group struct {
	Key    string
	Mean   float64
	Count  int
	Latest time.Time
}

// Rollup groups items by key and reports the mean value, count and most
// recent timestamp per group. Groups are returned in first-seen order.
func Rollup[T any](items []T, key func(T) string, value func(T) float64, at func(T) time.Time) []Group {
	index := make(map[string]int)
	sums := make([]float64, 0)
	groups := make([]Group, 0)

	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
			sums = append(sums, 0)
		}
		sums[i] += value(item)
		groups[i].Count++
		if t := at(item); t.After(groups[i].Latest) {
			groups[i].Latest = t
		}
	}

	for i := range groups {
		groups[i].Mean = sums[i] / float64(groups[i].Count)
	}
	return groups
}

// ModelBreakdown rolls evaluations up per model, best mean first.
func ModelBreakdown(evals []models.Evaluation) []models.ModelStats {
	groups := Rollup(evals,
		func(e models.Evaluation) string { return e.Model },
		func(e models.Evaluation) float64 { return e.Score },
		func(e models.Evaluation) time.Time { return e.CreatedAt },
	)
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Mean != groups[j].Mean {
			return groups[i].Mean > groups[j].Mean
		}
		return groups[i].Key < groups[j].Key
	})

	stats := make([]models.ModelStats, 0, len(groups))
	for _, g := range groups {
		ms := models.ModelStats{
			Model:        g.Key,
			AverageScore: round(g.Mean, 3),
			RunCount:     g.Count,
		}
		if !g.Latest.IsZero() {
			last := g.Latest
			ms.LastRun = &last
		}
		stats = append(stats, ms)
	}
	return stats
}

// EvaluationRollups computes the analytics view over evaluations. The
// success rate counts scores passing the given threshold.
func EvaluationRollups(evals []models.Evaluation, threshold float64) models.Rollups {
	r := models.Rollups{
		TotalRuns:      len(evals),
		Threshold:      threshold,
		ModelBreakdown: ModelBreakdown(evals),
		DailyScores: DailyBuckets(evals,
			func(e models.Evaluation) time.Time { return e.CreatedAt },
			func(e models.Evaluation) float64 { return e.Score },
		),
	}
	if len(evals) == 0 {
		return r
	}

	var sum float64
	var passed int
	for _, e := range evals {
		sum += e.Score
		if Passes(e.Score, threshold) {
			passed++
		}
		if e.Mock {
			r.MockRuns++
		}
	}
	r.AverageScore = round(sum/float64(len(evals)), 3)
	r.SuccessRate = round(float64(passed)/float64(len(evals)), 3)
	return r
}
