package scoring

import (
	"sort"
	"strings"
	"time"

	"github.com/kamilpajak/reliability/pkg/models"
)

const (
	costPerThousandTokens = 0.003
	idPrefixLen           = 8

	defaultIssue      = "Mismatch between expected and actual outputs."
	regressionIssue   = "Agent requires regression coverage for this flow."
	defaultFix        = "Tighten validation and adjust prompt/tool usage for this scenario."
	defaultImpact     = "High impact · Medium effort"
	defaultRecSummary = "Failures in this scenario affect reliability scorecards."
	defaultRecAction  = "Add a regression test and rerun after fixing agent logic."
)

// CategorizeFailure buckets a failing objective by its actual output.
func CategorizeFailure(actual any) string {
	switch v := actual.(type) {
	case nil:
		return models.CategoryFormat
	case string:
		switch strings.ToLower(v) {
		case "":
			return models.CategoryFormat
		case "error", "unsupported", "not_found":
			return models.CategoryUnsupported
		}
	case map[string]any:
		if len(v) == 0 {
			return models.CategoryFormat
		}
	case []any:
		if len(v) == 0 {
			return models.CategoryFormat
		}
	}
	return models.CategoryLogic
}

// EstimateCost converts an average token count into US dollars.
func EstimateCost(tokens float64) float64 {
	return round(tokens/1000*costPerThousandTokens, 6)
}

// Enrich fills the derived fields a backend may omit: CostUsd from TokensUsed,
// the category of failing history entries and of LatestFailure, and
// ErrorFlags from those categories. Fields the backend supplied are kept.
// A failure without an objective means no evaluator ran and is categorised
// as infrastructure. The input is not modified.
func Enrich(records []models.BenchmarkRecord) []models.BenchmarkRecord {
	if records == nil {
		return nil
	}
	out := make([]models.BenchmarkRecord, len(records))
	for i, r := range records {
		if r.CostUsd == nil && r.TokensUsed != nil {
			cost := EstimateCost(*r.TokensUsed)
			r.CostUsd = &cost
		}

		flags := make(map[string]struct{})
		if r.History != nil {
			history := make([]models.HistoryEntry, len(r.History))
			for j, h := range r.History {
				if !h.Result {
					if h.FailureCategory == "" {
						h.FailureCategory = categorize(h.Objective, h.Actual)
					}
					flags[h.FailureCategory] = struct{}{}
				}
				history[j] = h
			}
			r.History = history
		}

		if r.LatestFailure != nil {
			lf := *r.LatestFailure
			if lf.Category == "" {
				lf.Category = categorize(lf.Objective, lf.Actual)
			}
			flags[lf.Category] = struct{}{}
			r.LatestFailure = &lf
		}

		if r.ErrorFlags == nil && len(flags) > 0 {
			r.ErrorFlags = make([]string, 0, len(flags))
			for f := range flags {
				r.ErrorFlags = append(r.ErrorFlags, f)
			}
			sort.Strings(r.ErrorFlags)
		}
		out[i] = r
	}
	return out
}

func categorize(objective string, actual any) string {
	if objective == "" {
		return models.CategoryInfrastructure
	}
	return CategorizeFailure(actual)
}

// RunStatus derives a run's status from its failure count.
func RunStatus(failed int) models.RunStatus {
	if failed > 0 {
		return models.RunStatusNeedsAttention
	}
	return models.RunStatusSuccess
}

func shortID(id string) string {
	if len(id) > idPrefixLen {
		return id[:idPrefixLen]
	}
	return id
}

// DeriveInsights builds a failure insight for every failed record. Pending and
// running records are skipped.
func DeriveInsights(records []models.BenchmarkRecord, now time.Time) []models.FailureInsight {
	out := make([]models.FailureInsight, 0)
	for _, r := range records {
		if r.Status != models.StatusFailed {
			continue
		}
		issue := defaultIssue
		var category string
		if r.LatestFailure != nil {
			if r.LatestFailure.Reason != "" {
				issue = r.LatestFailure.Reason
			}
			category = r.LatestFailure.Category
		}
		out = append(out, models.FailureInsight{
			ID:              "issue-" + shortID(r.ID),
			BenchmarkID:     r.ID,
			BenchmarkName:   r.Name,
			FailureRate:     round(1-r.SuccessRate, 4),
			LastFailureAt:   now,
			TopIssues:       []string{issue, regressionIssue},
			RecommendedFix:  defaultFix,
			FailureCategory: category,
			Inputs:          r.Inputs,
			History:         r.History,
		})
	}
	return out
}

// DeriveRecommendations builds a remediation entry for every failed record.
func DeriveRecommendations(records []models.BenchmarkRecord) []models.Recommendation {
	out := make([]models.Recommendation, 0)
	for _, r := range records {
		if r.Status != models.StatusFailed {
			continue
		}
		summary := defaultRecSummary
		if r.LatestFailure != nil && r.LatestFailure.Reason != "" {
			summary = r.LatestFailure.Reason
		}
		out = append(out, models.Recommendation{
			ID:      "rec-" + shortID(r.ID),
			Title:   "Restore " + r.Name,
			Impact:  defaultImpact,
			Summary: summary,
			Action:  defaultRecAction,
		})
	}
	return out
}
