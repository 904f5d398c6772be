// Package snapshot holds the current benchmark snapshot. Every fetch replaces
// the snapshot wholesale, and when fetches race only the most recently issued
// one is allowed to land.
package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kamilpajak/reliability/internal/backend"
	"github.com/kamilpajak/reliability/pkg/models"
	"github.com/kamilpajak/reliability/pkg/scoring"
)

// Snapshot is one complete fetch result. The zero value is the empty state.
type Snapshot struct {
	Suite           string
	Benchmarks      []models.BenchmarkRecord
	LiveRuns        []models.LiveRun
	FailureInsights []models.FailureInsight
	Recommendations []models.Recommendation
	GeneratedAt     *time.Time
	FetchedAt       time.Time

	// Message is a soft failure reported by the backend.
	Message string
	// Error is a transport or decoding failure.
	Error string
}

// Ticket identifies one issued fetch.
type Ticket uint64

// Store is the single writer of the current snapshot.
type Store struct {
	mu      sync.RWMutex
	issued  Ticket
	loading bool
	current Snapshot

	now       func() time.Time
	onDiscard func()
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithDiscardHook registers a callback run whenever a stale result is dropped.
func WithDiscardHook(fn func()) Option {
	return func(s *Store) { s.onDiscard = fn }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin issues a new ticket. Any ticket issued earlier becomes stale.
func (s *Store) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.loading = true
	return s.issued
}

// accept reports whether t is still the latest ticket and, if so, stores the
// snapshot. Callers hold no lock.
func (s *Store) accept(t Ticket, snap Snapshot) bool {
	s.mu.Lock()
	if t != s.issued {
		s.mu.Unlock()
		if s.onDiscard != nil {
			s.onDiscard()
		}
		return false
	}
	snap.FetchedAt = s.now().UTC()
	s.current = snap
	s.loading = false
	s.mu.Unlock()
	return true
}

// Commit applies a suite run response. A response carrying a message resets
// the snapshot to the empty state with that message.
func (s *Store) Commit(t Ticket, suite string, resp *models.SuiteRunResponse) bool {
	if resp == nil {
		return s.accept(t, Snapshot{Suite: suite})
	}
	if resp.Message != "" {
		return s.accept(t, Snapshot{Suite: suite, Message: resp.Message})
	}

	snap := Snapshot{
		Suite:           suite,
		Benchmarks:      scoring.Enrich(resp.Benchmarks),
		LiveRuns:        resp.LiveRuns,
		FailureInsights: resp.FailureInsights,
		Recommendations: resp.Recommendations,
		GeneratedAt:     resp.GeneratedAt,
	}
	if snap.FailureInsights == nil {
		snap.FailureInsights = scoring.DeriveInsights(snap.Benchmarks, s.now().UTC())
	}
	if snap.Recommendations == nil {
		snap.Recommendations = scoring.DeriveRecommendations(snap.Benchmarks)
	}
	return s.accept(t, snap)
}

// CommitBenchmarks applies a plain benchmark listing.
func (s *Store) CommitBenchmarks(t Ticket, records []models.BenchmarkRecord) bool {
	return s.Commit(t, "", &models.SuiteRunResponse{Benchmarks: records})
}

// Fail resets the snapshot to the empty state carrying err.
func (s *Store) Fail(t Ticket, suite string, err error) bool {
	snap := Snapshot{Suite: suite}
	if err != nil {
		snap.Error = err.Error()
	}
	return s.accept(t, snap)
}

// Current returns the latest accepted snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Loading reports whether the latest issued fetch is still outstanding.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// BenchmarkSource lists the latest benchmark snapshot.
type BenchmarkSource interface {
	ListBenchmarks(ctx context.Context) ([]models.BenchmarkRecord, error)
}

// Refresh fetches benchmarks from src and applies them under a fresh ticket.
// A soft failure from src is applied as an empty snapshot carrying its
// message and is not reported as an error.
// applied is false when a newer fetch was issued in the meantime.
func (s *Store) Refresh(ctx context.Context, src BenchmarkSource) (applied bool, err error) {
	t := s.Begin()
	records, err := src.ListBenchmarks(ctx)
	var sf *backend.SoftFailureError
	if errors.As(err, &sf) {
		return s.Commit(t, "", &models.SuiteRunResponse{Message: sf.Message}), nil
	}
	if err != nil {
		return s.Fail(t, "", err), err
	}
	return s.CommitBenchmarks(t, records), nil
}
