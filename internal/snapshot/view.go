package snapshot

import (
	"time"

	"github.com/kamilpajak/reliability/pkg/models"
	"github.com/kamilpajak/reliability/pkg/scoring"
)

// View is what the dashboard renders for a snapshot at a given threshold.
type View struct {
	Suite           string                   `json:"suite,omitempty"`
	Threshold       float64                  `json:"threshold"`
	Summary         models.Summary           `json:"summary"`
	Benchmarks      []models.BenchmarkRecord `json:"benchmarks"`
	Failing         []models.BenchmarkRecord `json:"failing"`
	Trend           []scoring.TrendPoint     `json:"trend"`
	LiveRuns        []models.LiveRun         `json:"liveRuns"`
	FailureInsights []models.FailureInsight  `json:"failureInsights"`
	Recommendations []models.Recommendation  `json:"recommendations"`
	GeneratedAt     *time.Time               `json:"generatedAt,omitempty"`
	Message         string                   `json:"message,omitempty"`
	Error           string                   `json:"error,omitempty"`
	Loading         bool                     `json:"loading"`
}

// View derives the render state of snap at threshold. Nothing is cached, so
// a threshold change reclassifies everything on the next call.
func (snap Snapshot) View(threshold float64) View {
	return View{
		Suite:           snap.Suite,
		Threshold:       threshold,
		Summary:         scoring.Aggregate(snap.Benchmarks),
		Benchmarks:      nonNil(snap.Benchmarks),
		Failing:         scoring.FailingBenchmarks(snap.Benchmarks, threshold),
		Trend:           scoring.Accumulate(scoring.HistoryOutcomes(snap.Benchmarks)),
		LiveRuns:        nonNil(snap.LiveRuns),
		FailureInsights: nonNil(snap.FailureInsights),
		Recommendations: nonNil(snap.Recommendations),
		GeneratedAt:     snap.GeneratedAt,
		Message:         snap.Message,
		Error:           snap.Error,
	}
}

// Find returns the benchmark with the given id, or nil.
func (snap Snapshot) Find(id string) *models.BenchmarkRecord {
	for i := range snap.Benchmarks {
		if snap.Benchmarks[i].ID == id {
			r := snap.Benchmarks[i]
			return &r
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// View renders the current snapshot at threshold.
func (s *Store) View(threshold float64) View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.current.View(threshold)
	v.Loading = s.loading
	return v
}
