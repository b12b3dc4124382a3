package trends

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/domain"
	db "github.com/brandscout/brandscout/internal/storage"
)

type memoryTrendStore struct {
	snaps []db.TrendSnapshot
}

func (s *memoryTrendStore) SaveTrendSnapshot(_ context.Context, snap *db.TrendSnapshot) error {
	s.snaps = append(s.snaps, *snap)
	return nil
}

func (s *memoryTrendStore) CountTrendSnapshots(_ context.Context, jobID string) (int, error) {
	count := 0

	for _, snap := range s.snaps {
		if snap.JobID == jobID {
			count++
		}
	}

	return count, nil
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		name string
		rctx domain.ResearchContext
		want []string
	}{
		{
			name: "brand and niche",
			rctx: domain.ResearchContext{BrandName: "Acme Coffee", Niche: "specialty coffee"},
			want: []string{"Acme Coffee", "specialty coffee"},
		},
		{
			name: "niche equal to brand collapses",
			rctx: domain.ResearchContext{BrandName: "Acme", Niche: "Acme"},
			want: []string{"Acme"},
		},
		{
			name: "empty context yields nothing",
			rctx: domain.ResearchContext{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keywords(tt.rctx)
			if len(got) != len(tt.want) {
				t.Fatalf("Keywords = %v, want %v", got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Keywords[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCollect_ToolFailureIsAStepError(t *testing.T) {
	logger := zerolog.Nop()
	store := &memoryTrendStore{}

	c := NewCollector("/nonexistent/trends-tool", 0, "US", store, &logger)

	result := c.Collect(context.Background(), domain.ResearchContext{
		JobID:     "job-1",
		BrandName: "Acme Coffee",
	})

	if result.Saved != 0 {
		t.Errorf("Saved = %d, want 0", result.Saved)
	}

	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one tool error", result.Errors)
	}

	if result.Errors[0].Step != stepName {
		t.Errorf("Step = %q, want %q", result.Errors[0].Step, stepName)
	}
}

func TestCollect_NoKeywordsNoWork(t *testing.T) {
	logger := zerolog.Nop()
	store := &memoryTrendStore{}

	c := NewCollector("/nonexistent/trends-tool", 0, "", store, &logger)

	result := c.Collect(context.Background(), domain.ResearchContext{JobID: "job-1"})
	if result.Saved != 0 || len(result.Errors) != 0 {
		t.Errorf("result = %+v, want empty no-op", result)
	}
}
