// Package scoring turns benchmark telemetry into reliability signals.
// Every function here is pure; pass/fail is derived on each call from raw
// scores and the threshold passed in.
package scoring

import (
	"math"
	"strconv"
	"strings"
)

// Threshold bounds.
const (
	DefaultThreshold = 0.7
	MinThreshold     = 0.1
	MaxThreshold     = 1.0
)

// Verdict is the outcome of classifying a score against a threshold.
type Verdict int

const (
	Fail Verdict = iota
	Pass
)

func (v Verdict) String() string {
	if v == Pass {
		return "pass"
	}
	return "fail"
}

// MarshalText renders the verdict as "pass" or "fail".
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Classify passes a score iff it is at or above the threshold.
func Classify(score, threshold float64) Verdict {
	if score >= threshold {
		return Pass
	}
	return Fail
}

// Passes is Classify as a boolean.
func Passes(score, threshold float64) bool {
	return Classify(score, threshold) == Pass
}

// ClampThreshold bounds a user edit to [MinThreshold, MaxThreshold].
func ClampThreshold(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultThreshold
	}
	return math.Min(MaxThreshold, math.Max(MinThreshold, v))
}

// NormalizeThreshold returns v when it is a usable stored threshold in (0, 1]
// and DefaultThreshold otherwise.
func NormalizeThreshold(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v > 1 {
		return DefaultThreshold
	}
	return v
}

// ParseThreshold reads a persisted threshold, falling back to the default on
// missing or malformed input.
func ParseThreshold(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultThreshold
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return DefaultThreshold
	}
	return NormalizeThreshold(v)
}

// FormatThreshold is the storage encoding read back by ParseThreshold.
func FormatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
