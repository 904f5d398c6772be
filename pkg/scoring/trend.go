package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/kamilpajak/reliability/pkg/models"
)

// TrendPoint is one step of the cumulative success curve, in whole percent.
type TrendPoint struct {
	Index       int `json:"index"`
	SuccessRate int `json:"successRate"`
}

// Accumulate returns the running success rate over outcomes: point i is the
// share of passes among outcomes[0..i], rounded to a whole percent.
func Accumulate(outcomes []bool) []TrendPoint {
	points := make([]TrendPoint, 0, len(outcomes))
	passed := 0
	for i, ok := range outcomes {
		if ok {
			passed++
		}
		rate := float64(passed) / float64(i+1) * 100
		points = append(points, TrendPoint{Index: i, SuccessRate: int(math.Round(rate))})
	}
	return points
}

// HistoryOutcomes flattens the history of all records into one chronological
// outcome sequence. Entries without a timestamp keep their relative order
// after the timestamped ones.
func HistoryOutcomes(records []models.BenchmarkRecord) []bool {
	var entries []models.HistoryEntry
	for _, r := range records {
		entries = append(entries, r.History...)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Timestamp, entries[j].Timestamp
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})

	outcomes := make([]bool, len(entries))
	for i, e := range entries {
		outcomes[i] = e.Result
	}
	return outcomes
}

// DailyBuckets groups items by UTC calendar day and reports the mean value
// and count per day in chronological order.
func DailyBuckets[T any](items []T, at func(T) time.Time, value func(T) float64) []models.DailyScore {
	type bucket struct {
		sum   float64
		count int
	}
	byDay := make(map[string]*bucket)
	for _, item := range items {
		day := at(item).UTC().Format(time.DateOnly)
		b, ok := byDay[day]
		if !ok {
			b = &bucket{}
			byDay[day] = b
		}
		b.sum += value(item)
		b.count++
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]models.DailyScore, 0, len(days))
	for _, day := range days {
		b := byDay[day]
		out = append(out, models.DailyScore{
			Date:         day,
			AverageScore: round(b.sum/float64(b.count), 3),
			RunCount:     b.count,
		})
	}
	return out
}
