// Package orchestrator drives a research job through its steps: web
// context, competitor discovery, profile scraping, question analysis,
// community mining and trend collection. Steps degrade independently; the
// only fatal condition is a job that does not exist.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/domain"
	"github.com/brandscout/brandscout/internal/core/ports"
	"github.com/brandscout/brandscout/internal/platform/observability"
	"github.com/brandscout/brandscout/internal/process/analysis"
	"github.com/brandscout/brandscout/internal/process/community"
	"github.com/brandscout/brandscout/internal/process/discovery"
	"github.com/brandscout/brandscout/internal/process/health"
	"github.com/brandscout/brandscout/internal/process/quality"
	"github.com/brandscout/brandscout/internal/process/scrape"
	"github.com/brandscout/brandscout/internal/process/trends"
	db "github.com/brandscout/brandscout/internal/storage"
)

const webSummaryMaxChars = 4000

// Trender is the trends step collaborator. Optional; nil skips the step.
type Trender interface {
	Collect(ctx context.Context, rctx domain.ResearchContext) trends.Result
}

// Scraper is the profile scrape collaborator. Optional; nil skips the step.
type Scraper interface {
	ScrapeProfiles(ctx context.Context, rctx domain.ResearchContext, competitors []domain.CandidateCompetitor) scrape.Result
}

// Miner is the community step collaborator.
type Miner interface {
	Mine(ctx context.Context, rctx domain.ResearchContext) community.Result
}

// Analyzer is the question-catalog collaborator.
type Analyzer interface {
	AskAllQuestions(ctx context.Context, rctx domain.ResearchContext) analysis.Result
}

// Discoverer is the layered discovery collaborator.
type Discoverer interface {
	Resolve(ctx context.Context, rctx domain.ResearchContext) discovery.Result
}

// Engine runs research jobs end to end.
type Engine struct {
	store      ports.Store
	searcher   discovery.Searcher
	discoverer Discoverer
	scraper    Scraper
	analyzer   Analyzer
	miner      Miner
	trender    Trender
	health     *health.Tracker
	thresholds Thresholds
	logger     *zerolog.Logger
}

// NewEngine wires the orchestration engine. scraper and trender may be nil
// when the matching tool is not configured.
func NewEngine(
	store ports.Store,
	searcher discovery.Searcher,
	discoverer Discoverer,
	scraper Scraper,
	analyzer Analyzer,
	miner Miner,
	trender Trender,
	tracker *health.Tracker,
	thresholds Thresholds,
	logger *zerolog.Logger,
) *Engine {
	return &Engine{
		store:      store,
		searcher:   searcher,
		discoverer: discoverer,
		scraper:    scraper,
		analyzer:   analyzer,
		miner:      miner,
		trender:    trender,
		health:     tracker,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Run executes one research job. All step failures are collected into the
// result; the returned error is non-nil only when the job cannot be loaded
// at all.
func (e *Engine) Run(ctx context.Context, jobID string) (*domain.RunResult, error) {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			return nil, fmt.Errorf("job %s: %w", jobID, err)
		}

		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}

	result := &domain.RunResult{JobID: jobID, StartedAt: time.Now().UTC()}

	if err := e.store.UpdateJobStatus(ctx, jobID, domain.JobStatusProcessing); err != nil {
		e.logger.Warn().Err(err).Str("job_id", jobID).Msg("cannot mark job processing")
	}

	cp, err := LoadCheckpoint(ctx, e.store, jobID)
	if err != nil {
		// A broken checkpoint read falls back to running everything.
		result.Errors = append(result.Errors, domain.StepError{Step: "checkpoint", Err: err})
		cp = Checkpoint{}
	}

	logger := e.logger.With().Str("job_id", jobID).Logger()

	logger.Info().
		Int("search_results", cp.SearchResults).
		Int("competitors", cp.Competitors).
		Int("answers", cp.Answers).
		Int("insights", cp.Insights).
		Msg("run started")

	e.runWebContextStep(ctx, job, cp, result, &logger)

	webSummary, err := e.store.WebSummary(ctx, jobID, webSummaryMaxChars)
	if err != nil {
		result.Errors = append(result.Errors, domain.StepError{Step: StepWebContext, Layer: "summary", Err: err})
	}

	rctx := job.Context(webSummary)

	e.runDiscoveryStep(ctx, rctx, cp, result, &logger)
	e.runScrapeStep(ctx, rctx, cp, result, &logger)
	e.runAnalysisStep(ctx, rctx, cp, result, &logger)
	e.runCommunityStep(ctx, rctx, cp, result, &logger)
	e.runTrendsStep(ctx, rctx, cp, result, &logger)

	result.Connectors = e.health.Snapshot()
	result.FinishedAt = time.Now().UTC()

	status := domain.JobStatusDone
	if len(result.Competitors) == 0 && len(result.Analysis) == 0 && len(result.Errors) > 0 {
		status = domain.JobStatusError
	}

	if err := e.store.UpdateJobStatus(ctx, jobID, status); err != nil {
		e.logger.Warn().Err(err).Str("job_id", jobID).Msg("cannot finalize job status")
	}

	observability.ResearchRuns.WithLabelValues(status).Inc()

	logger.Info().
		Str("status", status).
		Int("competitors", len(result.Competitors)).
		Int("answers", len(result.Analysis)).
		Int("step_errors", len(result.Errors)).
		Strs("skipped", result.SkippedSteps).
		Dur("elapsed", result.FinishedAt.Sub(result.StartedAt)).
		Msg("run finished")

	return result, nil
}

func (e *Engine) runWebContextStep(ctx context.Context, job *domain.ResearchJob, cp Checkpoint, result *domain.RunResult, logger *zerolog.Logger) {
	if cp.ShouldSkip(StepWebContext, e.thresholds) {
		skipStep(result, StepWebContext)

		logger.Info().Int("stored", cp.SearchResults).Msg("web context already done, skipping")

		return
	}

	defer stepTimer(StepWebContext)()

	saved, stepErrs := runWebContext(ctx, e.searcher, e.store, job.Context(""), logger)
	result.Errors = append(result.Errors, stepErrs...)

	logger.Info().Int("saved", saved).Msg("web context done")
}

func (e *Engine) runDiscoveryStep(ctx context.Context, rctx domain.ResearchContext, cp Checkpoint, result *domain.RunResult, logger *zerolog.Logger) {
	if cp.ShouldSkip(StepDiscovery, e.thresholds) {
		skipStep(result, StepDiscovery)

		stored, err := e.store.ListCompetitors(ctx, rctx.JobID)
		if err != nil {
			result.Errors = append(result.Errors, domain.StepError{Step: StepDiscovery, Layer: "load_stored", Err: err})
		} else {
			result.Competitors = stored
		}

		logger.Info().Int("stored", cp.Competitors).Msg("discovery already done, skipping")

		return
	}

	defer stepTimer(StepDiscovery)()

	dres := e.discoverer.Resolve(ctx, rctx)
	result.Errors = append(result.Errors, dres.Errors...)
	result.LayersUsed = append(result.LayersUsed, dres.LayersUsed...)

	if len(dres.Candidates) > 0 {
		if _, err := e.store.SaveCompetitors(ctx, rctx.JobID, dres.Candidates); err != nil {
			result.Errors = append(result.Errors, domain.StepError{Step: StepDiscovery, Layer: "persist", Err: err})
		}
	}

	result.Competitors = dres.Candidates

	report := quality.EvaluateWithThreshold(quality.CompetitorRecords(dres.Candidates), quality.TypeCompetitors, e.thresholds.Discovery, e.thresholds.Reliable)
	result.QualityReports = append(result.QualityReports, report)

	if !report.IsReliable {
		logger.Warn().
			Int("score", report.Score).
			Strs("issues", report.Issues).
			Msg("discovery batch below reliability threshold")
	}
}

func (e *Engine) runScrapeStep(ctx context.Context, rctx domain.ResearchContext, cp Checkpoint, result *domain.RunResult, logger *zerolog.Logger) {
	if e.scraper == nil {
		return
	}

	if cp.ShouldSkip(StepScrape, e.thresholds) {
		skipStep(result, StepScrape)

		logger.Info().Int("stored", cp.ProfileSnapshots).Msg("profile scraping already done, skipping")

		return
	}

	defer stepTimer(StepScrape)()

	sres := e.scraper.ScrapeProfiles(ctx, rctx, result.Competitors)
	result.Errors = append(result.Errors, sres.Errors...)
}

func (e *Engine) runAnalysisStep(ctx context.Context, rctx domain.ResearchContext, cp Checkpoint, result *domain.RunResult, logger *zerolog.Logger) {
	if cp.ShouldSkip(StepAnalysis, e.thresholds) {
		skipStep(result, StepAnalysis)

		stored, err := e.store.ListAnalysisAnswers(ctx, rctx.JobID)
		if err != nil {
			result.Errors = append(result.Errors, domain.StepError{Step: StepAnalysis, Layer: "load_stored", Err: err})
		} else {
			result.Analysis = stored
		}

		logger.Info().Int("stored", cp.Answers).Msg("analysis already done, skipping")

		return
	}

	defer stepTimer(StepAnalysis)()

	ares := e.analyzer.AskAllQuestions(ctx, rctx)
	result.Analysis = ares.Answers
	result.Errors = append(result.Errors, ares.Errors...)
	result.TokensUsed += ares.TokensUsed
}

func (e *Engine) runCommunityStep(ctx context.Context, rctx domain.ResearchContext, cp Checkpoint, result *domain.RunResult, logger *zerolog.Logger) {
	if cp.ShouldSkip(StepCommunity, e.thresholds) {
		skipStep(result, StepCommunity)

		logger.Info().Int("stored", cp.Insights).Msg("community mining already done, skipping")

		return
	}

	defer stepTimer(StepCommunity)()

	mres := e.miner.Mine(ctx, rctx)
	result.Errors = append(result.Errors, mres.Errors...)
}

func (e *Engine) runTrendsStep(ctx context.Context, rctx domain.ResearchContext, cp Checkpoint, result *domain.RunResult, logger *zerolog.Logger) {
	if e.trender == nil {
		return
	}

	if cp.ShouldSkip(StepTrends, e.thresholds) {
		skipStep(result, StepTrends)

		logger.Info().Int("stored", cp.TrendSnapshots).Msg("trends already done, skipping")

		return
	}

	defer stepTimer(StepTrends)()

	tres := e.trender.Collect(ctx, rctx)
	result.Errors = append(result.Errors, tres.Errors...)
}

// skipStep records a resume skip in the layer-usage log. The marker also
// lands in SkippedSteps so callers can tell skips apart from real layers.
func skipStep(result *domain.RunResult, step string) {
	marker := markSkipped(step)
	result.LayersUsed = append(result.LayersUsed, marker)
	result.SkippedSteps = append(result.SkippedSteps, marker)
}

// stepTimer records the step's duration when the returned func runs.
func stepTimer(step string) func() {
	start := time.Now()

	return func() {
		observability.StepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
	}
}
