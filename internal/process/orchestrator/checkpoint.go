package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/brandscout/brandscout/internal/core/ports"
	"github.com/brandscout/brandscout/internal/platform/observability"
)

// Step names. Metrics and skip markers derive from these.
const (
	StepWebContext = "web_context"
	StepDiscovery  = "discovery"
	StepScrape     = "scrape"
	StepAnalysis   = "analysis"
	StepCommunity  = "community"
	StepTrends     = "trends"
)

// SkipMarker is the marker recorded when a step is skipped on resume,
// e.g. "DISCOVERY_SKIPPED_RESUME".
func SkipMarker(step string) string {
	return strings.ToUpper(step) + "_SKIPPED_RESUME"
}

// Thresholds are the per-step completion counts. A step whose stored output
// already meets its threshold is considered done and skipped on resume.
type Thresholds struct {
	WebContext int
	Discovery  int
	Scrape     int
	Analysis   int
	Community  int
	Trends     int

	// Reliable is the quality score at which a batch counts as reliable.
	// Zero means the scorer's default.
	Reliable int
}

// Checkpoint is the stored progress of a job, loaded once per run.
type Checkpoint struct {
	SearchResults    int
	Competitors      int
	ProfileSnapshots int
	Answers          int
	Insights         int
	TrendSnapshots   int
}

// LoadCheckpoint fans the count queries out concurrently.
func LoadCheckpoint(ctx context.Context, store ports.Store, jobID string) (Checkpoint, error) {
	var cp Checkpoint

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		cp.SearchResults, err = store.CountSearchResults(ctx, jobID)
		return err
	})
	g.Go(func() (err error) {
		cp.Competitors, err = store.CountCompetitors(ctx, jobID)
		return err
	})
	g.Go(func() (err error) {
		cp.ProfileSnapshots, err = store.CountProfileSnapshots(ctx, jobID)
		return err
	})
	g.Go(func() (err error) {
		cp.Answers, err = store.CountAnsweredQuestions(ctx, jobID)
		return err
	})
	g.Go(func() (err error) {
		cp.Insights, err = store.CountCommunityInsights(ctx, jobID)
		return err
	})
	g.Go(func() (err error) {
		cp.TrendSnapshots, err = store.CountTrendSnapshots(ctx, jobID)
		return err
	})

	if err := g.Wait(); err != nil {
		return Checkpoint{}, fmt.Errorf("load checkpoint: %w", err)
	}

	return cp, nil
}

// ShouldSkip reports whether the step's stored output already meets its
// completion threshold.
func (cp Checkpoint) ShouldSkip(step string, t Thresholds) bool {
	switch step {
	case StepWebContext:
		return cp.SearchResults > t.WebContext
	case StepDiscovery:
		return cp.Competitors > t.Discovery
	case StepScrape:
		return cp.ProfileSnapshots > t.Scrape
	case StepAnalysis:
		return cp.Answers >= t.Analysis
	case StepCommunity:
		return cp.Insights > t.Community
	case StepTrends:
		return cp.TrendSnapshots > t.Trends
	default:
		return false
	}
}

// markSkipped records the resume skip in metrics and returns the marker.
func markSkipped(step string) string {
	observability.StepsSkippedResume.WithLabelValues(step).Inc()
	return SkipMarker(step)
}
