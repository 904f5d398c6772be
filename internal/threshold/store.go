// Package threshold persists the user's reliability threshold.
//
// Reads never fail: a missing, corrupted or out-of-range value yields
// scoring.DefaultThreshold. Writes never fail either; storage errors are
// logged and dropped.
package threshold

import (
	"errors"
	"log/slog"

	"github.com/kamilpajak/reliability/pkg/scoring"
)

// StorageKey is the fixed key the threshold lives under.
const StorageKey = "reliability.threshold"

// Store reads and writes the threshold through a KV.
type Store struct {
	kv     KV
	logger *slog.Logger
}

// NewStore wraps kv. A nil kv behaves as unavailable storage.
func NewStore(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// Open opens a Badger-backed store. When Badger cannot be opened the failure
// is logged and a store without storage is returned: reads yield the default
// and writes are dropped. The returned func closes the underlying KV.
func Open(cfg BadgerConfig, logger *slog.Logger) (*Store, func() error) {
	if logger == nil {
		logger = slog.Default()
	}
	kv, err := OpenBadger(cfg)
	if err != nil {
		logger.Warn("threshold storage unavailable, using default", "path", cfg.Path, "error", err)
		return NewStore(nil, logger), func() error { return nil }
	}
	return NewStore(kv, logger), kv.Close
}

// Get returns the stored threshold or the default.
func (s *Store) Get() float64 {
	if s.kv == nil {
		return scoring.DefaultThreshold
	}
	raw, err := s.kv.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("threshold read failed", "error", err)
		}
		return scoring.DefaultThreshold
	}
	return scoring.ParseThreshold(string(raw))
}

// Set persists v as given. Out-of-range values are stored but read back as
// the default.
func (s *Store) Set(v float64) {
	if s.kv == nil {
		return
	}
	if err := s.kv.Set(StorageKey, []byte(scoring.FormatThreshold(v))); err != nil {
		s.logger.Warn("threshold write failed", "error", err)
	}
}

// Edit applies a user edit: v is clamped into the slider range before it is
// stored. The stored value is returned.
func (s *Store) Edit(v float64) float64 {
	clamped := scoring.ClampThreshold(v)
	s.Set(clamped)
	return clamped
}
