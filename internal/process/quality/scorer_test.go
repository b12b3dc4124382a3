package quality

import (
	"fmt"
	"testing"

	"github.com/brandscout/brandscout/internal/core/domain"
)

func competitorBatch(n int) []Record {
	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Record{
			"handle":          fmt.Sprintf("account_%d", i),
			"platform":        "instagram",
			"relevance_score": 0.8,
		})
	}

	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		data         []Record
		dataType     DataType
		expected     int
		wantScore    int
		wantReliable bool
	}{
		{
			name:         "clean full batch",
			data:         competitorBatch(10),
			dataType:     TypeCompetitors,
			expected:     10,
			wantScore:    100,
			wantReliable: true,
		},
		{
			name:         "no expectation no penalty",
			data:         competitorBatch(2),
			dataType:     TypeCompetitors,
			expected:     0,
			wantScore:    100,
			wantReliable: true,
		},
		{
			name:         "empty batch takes full deficit and shortfall warning",
			data:         nil,
			dataType:     TypeCompetitors,
			expected:     5,
			wantScore:    65,
			wantReliable: false,
		},
		{
			name: "missing required fields",
			data: []Record{
				{"handle": "", "platform": "instagram"},
				{"handle": "real", "platform": "instagram"},
			},
			dataType: TypeCompetitors,
			// one issue (15) only
			wantScore:    85,
			wantReliable: true,
		},
		{
			name: "implausible followers",
			data: []Record{
				{"handle": "mega", "platform": "instagram", "follower_count": 20_000_000},
			},
			dataType:     TypeCompetitors,
			wantScore:    85,
			wantReliable: true,
		},
		{
			name: "relevance out of range is only a warning",
			data: []Record{
				{"handle": "a", "platform": "instagram", "relevance_score": 1.5},
			},
			dataType:     TypeCompetitors,
			wantScore:    95,
			wantReliable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Evaluate(tt.data, tt.dataType, tt.expected)
			if report.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d (issues=%v warnings=%v)", report.Score, tt.wantScore, report.Issues, report.Warnings)
			}

			if report.IsReliable != tt.wantReliable {
				t.Errorf("IsReliable = %v, want %v", report.IsReliable, tt.wantReliable)
			}
		})
	}
}

func TestEvaluate_DuplicateRatio(t *testing.T) {
	// 3 copies of the same record: 2 duplicates out of 3 is over the 30%
	// limit and must be an issue, not a warning.
	rec := Record{"handle": "same", "platform": "instagram"}
	report := Evaluate([]Record{rec, rec, rec}, TypeCompetitors, 0)

	if len(report.Issues) != 1 {
		t.Fatalf("Issues = %v, want exactly one duplicate issue", report.Issues)
	}

	if report.Score != 85 {
		t.Errorf("Score = %d, want 85", report.Score)
	}

	// A single duplicate in a large batch stays below the limit.
	big := competitorBatch(9)
	big = append(big, Record{"handle": "account_0", "platform": "instagram", "relevance_score": 0.8})

	report = Evaluate(big, TypeCompetitors, 0)
	if len(report.Issues) != 0 {
		t.Errorf("Issues = %v, want none for 10%% duplicates", report.Issues)
	}

	if len(report.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one duplicate warning", report.Warnings)
	}
}

func TestEvaluate_ShortfallMonotonic(t *testing.T) {
	// Fewer records against the same expectation must never score higher.
	prev := 101
	for n := 10; n >= 1; n-- {
		report := Evaluate(competitorBatch(n), TypeCompetitors, 10)
		if report.Score > prev {
			t.Fatalf("score increased from %d to %d at n=%d", prev, report.Score, n)
		}

		prev = report.Score
	}
}

func TestEvaluate_ScoreClamped(t *testing.T) {
	// A batch full of problems cannot go below zero.
	data := []Record{
		{"follower_count": 99_000_000, "relevance_score": 5.0},
		{"follower_count": 99_000_000, "relevance_score": 5.0},
		{"follower_count": 99_000_000, "relevance_score": 5.0},
	}

	report := Evaluate(data, TypeCompetitors, 100)
	if report.Score < 0 || report.Score > 100 {
		t.Errorf("Score = %d, want within [0,100]", report.Score)
	}

	if report.IsReliable {
		t.Error("IsReliable = true for a degenerate batch")
	}
}

func TestEvaluateWithThreshold(t *testing.T) {
	data := []Record{
		{"handle": "rival_one", "platform": "instagram", "relevance_score": 0.8},
		{"handle": "rival_two", "platform": "instagram", "relevance_score": 0.7},
	}

	// Two of three expected: deficit penalty plus shortfall warning.
	report := EvaluateWithThreshold(data, TypeCompetitors, 3, 90)
	if report.IsReliable {
		t.Errorf("IsReliable = true at threshold 90 with score %d", report.Score)
	}

	report = EvaluateWithThreshold(data, TypeCompetitors, 3, 50)
	if !report.IsReliable {
		t.Errorf("IsReliable = false at threshold 50 with score %d", report.Score)
	}

	// Non-positive threshold falls back to the default.
	report = EvaluateWithThreshold(data, TypeCompetitors, 0, 0)
	if !report.IsReliable || report.Score != 100 {
		t.Errorf("report = %+v, want the default threshold applied", report)
	}
}

func TestCompetitorRecords(t *testing.T) {
	records := CompetitorRecords([]domain.CandidateCompetitor{
		{Handle: "acme", Platform: "instagram", RelevanceScore: 0.9},
	})

	if len(records) != 1 {
		t.Fatalf("len = %d, want 1", len(records))
	}

	if records[0]["handle"] != "acme" || records[0]["platform"] != "instagram" {
		t.Errorf("unexpected record %v", records[0])
	}
}
