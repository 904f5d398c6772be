package reliability

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/kamilpajak/reliability/internal/snapshot"
	"github.com/kamilpajak/reliability/internal/suites"
	"github.com/kamilpajak/reliability/pkg/models"
	"github.com/kamilpajak/reliability/pkg/scoring"
)

const timeLayout = "2006-01-02 15:04"

func verdictLabel(score, threshold float64) string {
	if scoring.Passes(score, threshold) {
		return color.New(color.FgGreen).Sprint("PASS")
	}
	return color.New(color.FgRed).Sprint("FAIL")
}

func statusLabel(s models.Status) string {
	padded := fmt.Sprintf("%-8s", s)
	switch s {
	case models.StatusSuccess:
		return color.New(color.FgGreen).Sprint(padded)
	case models.StatusFailed:
		return color.New(color.FgRed).Sprint(padded)
	case models.StatusRunning:
		return color.New(color.FgCyan).Sprint(padded)
	default:
		return color.New(color.FgHiBlack).Sprint(padded)
	}
}

func runStatusLabel(s models.RunStatus) string {
	if s == models.RunStatusSuccess {
		return color.New(color.FgGreen).Sprint(s)
	}
	return color.New(color.FgYellow).Sprint(s)
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func printSummary(w io.Writer, s models.Summary) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(w, "%d benchmarks", s.Total)
	fmt.Fprint(w, "  ")
	_, _ = color.New(color.FgGreen).Fprintf(w, "%d success", s.Success)
	fmt.Fprint(w, "  ")
	_, _ = color.New(color.FgRed).Fprintf(w, "%d failed", s.Failed)
	if other := s.Total - s.Success - s.Failed; other > 0 {
		fmt.Fprint(w, "  ")
		_, _ = color.New(color.FgHiBlack).Fprintf(w, "%d in progress", other)
	}
	fmt.Fprintln(w)
}

// printBenchmarks renders a snapshot view as a table followed by the trend
// and the failing benchmarks.
func printBenchmarks(w io.Writer, view snapshot.View) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	if view.Error != "" {
		_, _ = color.New(color.FgRed).Fprintf(w, "Fetch failed: %s\n", view.Error)
		return
	}
	if view.Message != "" {
		_, _ = color.New(color.FgYellow).Fprintf(w, "%s\n", view.Message)
		return
	}

	printSummary(w, view.Summary)
	_, _ = dim.Fprintf(w, "Threshold %s", scoring.FormatThreshold(view.Threshold))
	if view.GeneratedAt != nil {
		_, _ = dim.Fprintf(w, "  generated %s", view.GeneratedAt.UTC().Format(timeLayout))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	if len(view.Benchmarks) == 0 {
		fmt.Fprintln(w, "No benchmarks in snapshot.")
		return
	}

	nameWidth := len("NAME")
	for _, b := range view.Benchmarks {
		nameWidth = max(nameWidth, len(b.Name))
	}

	_, _ = bold.Fprintf(w, "%-*s  %-8s  %8s  %-7s  %s\n", nameWidth, "NAME", "STATUS", "SUCCESS", "VERDICT", "UPDATED")
	for _, b := range view.Benchmarks {
		updated := "-"
		if !b.UpdatedAt.IsZero() {
			updated = b.UpdatedAt.UTC().Format(timeLayout)
		}
		fmt.Fprintf(w, "%-*s  %s  %8s  %s     %s\n",
			nameWidth, b.Name, statusLabel(b.Status), percent(b.SuccessRate),
			verdictLabel(b.SuccessRate, view.Threshold), updated)
	}

	if len(view.Trend) > 0 {
		fmt.Fprintln(w)
		points := make([]string, len(view.Trend))
		for i, p := range view.Trend {
			points[i] = strconv.Itoa(p.SuccessRate)
		}
		fmt.Fprintf(w, "Trend (cumulative %%): %s\n", strings.Join(points, " "))
	}

	if len(view.Failing) > 0 {
		fmt.Fprintln(w)
		_, _ = bold.Fprintf(w, "Below threshold (%d)\n", len(view.Failing))
		for _, b := range view.Failing {
			fmt.Fprintf(w, "  %s  %s", b.Name, percent(b.SuccessRate))
			if b.LatestFailure != nil && b.LatestFailure.Reason != "" {
				_, _ = dim.Fprintf(w, "  %s", b.LatestFailure.Reason)
			}
			fmt.Fprintln(w)
		}
	}
}

// printRunResult renders the outcome of a suite run.
func printRunResult(w io.Writer, resp *models.SuiteRunResponse, run models.RunHistoryEntry, threshold float64) {
	dim := color.New(color.FgHiBlack)

	fmt.Fprintf(w, "%s  %s\n", run.SuiteLabel, runStatusLabel(run.Status))
	_, _ = dim.Fprintf(w, "run %s  threshold %s\n\n", run.ID, scoring.FormatThreshold(threshold))

	view := snapshot.Snapshot{
		Suite:           run.Suite,
		Benchmarks:      resp.Benchmarks,
		FailureInsights: resp.FailureInsights,
		Recommendations: resp.Recommendations,
		GeneratedAt:     resp.GeneratedAt,
	}.View(threshold)
	printBenchmarks(w, view)

	if len(resp.Recommendations) > 0 {
		fmt.Fprintln(w)
		_, _ = color.New(color.Bold).Fprintln(w, "Recommendations")
		for _, rec := range resp.Recommendations {
			fmt.Fprintf(w, "  %s\n", rec.Title)
			if rec.Action != "" {
				_, _ = dim.Fprintf(w, "    %s\n", rec.Action)
			}
		}
	}
}

// printRuns renders run history, newest first as given.
func printRuns(w io.Writer, runs []models.RunHistoryEntry) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(w, "%-16s  %-20s  %5s  %7s  %6s  %9s  %s\n",
		"REQUESTED", "SUITE", "TOTAL", "SUCCESS", "FAILED", "THRESHOLD", "STATUS")
	for _, r := range runs {
		label := r.SuiteLabel
		if label == "" {
			label = r.Suite
		}
		requested := "-"
		if !r.RequestedAt.IsZero() {
			requested = r.RequestedAt.UTC().Format(timeLayout)
		}
		fmt.Fprintf(w, "%-16s  %-20s  %5d  %7d  %6d  %9s  %s\n",
			requested, label, r.BenchmarkCount, r.Success, r.Failed,
			scoring.FormatThreshold(r.Threshold), runStatusLabel(r.Status))
	}
}

func printSuites(w io.Writer, catalog *suites.Catalog) {
	for _, s := range catalog.Suites {
		marker := " "
		if s.Default {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-10s %s\n", marker, s.ID, s.Label)
		if s.Description != "" {
			_, _ = color.New(color.FgHiBlack).Fprintf(w, "             %s\n", s.Description)
		}
	}
}
