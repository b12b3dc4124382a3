// Package quality computes reliability scores for gathered record batches.
package quality

import (
	"encoding/json"
	"fmt"

	"github.com/brandscout/brandscout/internal/core/domain"
)

// DataType declares what kind of records a batch contains, which decides
// the field-presence checks applied to it.
type DataType string

const (
	TypeCompetitors DataType = "competitors"
	TypePosts       DataType = "posts"
	TypeInsights    DataType = "insights"
)

const (
	duplicateRatioLimit = 0.30
	maxFollowerCount    = 10_000_000

	issuePenalty   = 15
	warningPenalty = 5
	deficitPenalty = 30
	reliableScore  = 70
	maxScore       = 100
)

// Record is one untyped record in a batch.
type Record map[string]any

// Evaluate computes a 0-100 reliability score for a batch with the default
// reliability threshold. Pure: no side effects, never fails. expectedCount
// <= 0 disables the shortfall penalty.
func Evaluate(data []Record, dataType DataType, expectedCount int) domain.QualityScoreReport {
	return EvaluateWithThreshold(data, dataType, expectedCount, reliableScore)
}

// EvaluateWithThreshold is Evaluate with a caller-chosen reliability
// threshold. reliableAt <= 0 falls back to the default.
func EvaluateWithThreshold(data []Record, dataType DataType, expectedCount, reliableAt int) domain.QualityScoreReport {
	if reliableAt <= 0 {
		reliableAt = reliableScore
	}

	report := domain.QualityScoreReport{
		Source:   string(dataType),
		Score:    maxScore,
		Issues:   []string{},
		Warnings: []string{},
	}

	checkDuplicates(data, &report)
	checkRequiredFields(data, dataType, &report)
	checkRanges(data, &report)

	score := maxScore - issuePenalty*len(report.Issues) - warningPenalty*len(report.Warnings)

	if expectedCount > 0 && len(data) < expectedCount {
		deficit := float64(expectedCount-len(data)) / float64(expectedCount)
		score -= int(deficit * deficitPenalty)

		report.Warnings = append(report.Warnings, fmt.Sprintf("got %d records, expected %d", len(data), expectedCount))
		score -= warningPenalty
	}

	report.Score = clamp(score)
	report.IsReliable = report.Score >= reliableAt

	return report
}

// checkDuplicates flags batches where exact duplicates exceed 30%, which
// usually signals a provider loop.
func checkDuplicates(data []Record, report *domain.QualityScoreReport) {
	seen := make(map[string]int, len(data))
	duplicates := 0

	for _, rec := range data {
		serialized, err := json.Marshal(rec)
		if err != nil {
			continue
		}

		key := string(serialized)
		if seen[key] > 0 {
			duplicates++
		}

		seen[key]++
	}

	if duplicates == 0 {
		return
	}

	ratio := float64(duplicates) / float64(len(data))
	if ratio > duplicateRatioLimit {
		report.Issues = append(report.Issues, fmt.Sprintf("%d duplicate records (%.0f%% of batch)", duplicates, ratio*100))
	} else {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d duplicate records", duplicates))
	}
}

func checkRequiredFields(data []Record, dataType DataType, report *domain.QualityScoreReport) {
	missing := 0

	for _, rec := range data {
		switch dataType {
		case TypeCompetitors:
			if !hasString(rec, "handle") || !hasString(rec, "platform") {
				missing++
			}
		case TypePosts:
			if !hasString(rec, "external_id") && !hasString(rec, "url") {
				missing++
			}
		case TypeInsights:
			if !hasString(rec, "url") {
				missing++
			}
		}
	}

	if missing > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d records missing required fields for type %s", missing, dataType))
	}
}

// checkRanges flags implausible numeric values instead of silently
// accepting them.
func checkRanges(data []Record, report *domain.QualityScoreReport) {
	for _, rec := range data {
		if followers, ok := asFloat(rec["follower_count"]); ok && followers > maxFollowerCount {
			report.Issues = append(report.Issues, fmt.Sprintf("implausible follower count %.0f", followers))
		}

		if score, ok := asFloat(rec["relevance_score"]); ok && (score < 0 || score > 1) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("relevance score %.2f outside [0,1]", score))
		}
	}
}

func hasString(rec Record, key string) bool {
	s, ok := rec[key].(string)
	return ok && s != ""
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}

	if score > maxScore {
		return maxScore
	}

	return score
}

// CompetitorRecords converts candidates into scoreable records.
func CompetitorRecords(candidates []domain.CandidateCompetitor) []Record {
	out := make([]Record, 0, len(candidates))

	for _, c := range candidates {
		out = append(out, Record{
			"handle":          c.Handle,
			"platform":        c.Platform,
			"relevance_score": c.RelevanceScore,
		})
	}

	return out
}
