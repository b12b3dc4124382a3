// Package app provides the application bootstrap and runtime wiring.
//
// The App type assembles the dependency graph and exposes the operational
// modes:
//
//   - Run mode: execute one research job by id and exit
//   - Worker mode: poll the queue and run claimed jobs until shutdown
//
// A health and metrics server can run alongside either mode.
package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/llm"
	"github.com/brandscout/brandscout/internal/platform/config"
	"github.com/brandscout/brandscout/internal/platform/observability"
	"github.com/brandscout/brandscout/internal/process/analysis"
	"github.com/brandscout/brandscout/internal/process/community"
	"github.com/brandscout/brandscout/internal/process/discovery"
	"github.com/brandscout/brandscout/internal/process/health"
	"github.com/brandscout/brandscout/internal/process/orchestrator"
	"github.com/brandscout/brandscout/internal/process/scrape"
	"github.com/brandscout/brandscout/internal/process/trends"
	"github.com/brandscout/brandscout/internal/search"
	db "github.com/brandscout/brandscout/internal/storage"
)

const llmAPIKeyMock = "mock"

// App holds the application dependencies and provides the run modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.database, a.cfg.HealthPort, a.logger).Start(ctx)
}

// RunJob executes a single research job and logs its outcome.
func (a *App) RunJob(ctx context.Context, jobID string) error {
	engine := a.buildEngine()

	result, err := engine.Run(ctx, jobID)
	if err != nil {
		return err
	}

	for _, stepErr := range result.Errors {
		a.logger.Warn().
			Str("step", stepErr.Step).
			Str("layer", stepErr.Layer).
			Err(stepErr.Err).
			Msg("step degraded")
	}

	return nil
}

// RunWorker polls the job queue until the context is canceled.
func (a *App) RunWorker(ctx context.Context) error {
	worker := orchestrator.NewWorker(a.database, a.buildEngine(), a.cfg.WorkerPollInterval, a.logger)
	return worker.Run(ctx)
}

func (a *App) buildEngine() *orchestrator.Engine {
	tracker := health.NewTracker()

	searxng := search.NewSearxNGProvider(search.SearxNGConfig{
		BaseURL:    a.cfg.SearxNGBaseURL,
		Timeout:    a.cfg.SearxNGTimeout,
		RPS:        a.cfg.SearchRPS,
		Engines:    splitEngines(a.cfg.SearxNGEngines),
		MaxResults: a.cfg.SearchMaxResults,
	})

	registry := search.NewRegistry()
	registry.Register(searxng)

	platformSearch := search.NewScopedProvider(searxng, nil)

	client := a.newLLMClient()
	params := llm.Params{
		Model:       a.cfg.LLMModel,
		MaxTokens:   a.cfg.LLMMaxTokens,
		Temperature: a.cfg.LLMTemperature,
	}

	var tool discovery.SubprocessTool
	if a.cfg.DiscoveryToolPath != "" {
		tool = discovery.NewToolRunner(a.cfg.DiscoveryToolPath, a.cfg.DiscoveryToolTimeout, a.logger)
	}

	var browser discovery.Browser
	if a.cfg.BrowserFallbackEnabled {
		browser = discovery.NewRodBrowser(a.cfg.BrowserTimeout, a.logger)
	}

	resolver := discovery.NewResolver(
		discovery.Config{
			MinCandidates: a.cfg.DiscoveryMinCandidates,
			MaxCandidates: a.cfg.DiscoveryMaxCandidates,
			MinConfidence: a.cfg.ValidationMinConfidence,
		},
		platformSearch,
		registry,
		tool,
		browser,
		discovery.NewLLMValidator(client, params, a.logger),
		tracker,
		a.logger,
	)

	analyzer := analysis.NewEngine(a.database, client, params, a.logger)

	miner := community.NewMiner(
		community.Config{
			MaxContentLen: a.cfg.CommunityMaxContentLen,
			MaxPerQuery:   a.cfg.CommunityMaxPerQuery,
			FetchTimeout:  a.cfg.CommunityFetchTimeout,
			FetchContent:  a.cfg.CommunityFetchContent,
		},
		a.database,
		registry,
		a.logger,
	)

	var scraper orchestrator.Scraper
	if a.cfg.ScrapeToolPath != "" {
		scraper = scrape.NewScraper(a.cfg.ScrapeToolPath, a.cfg.ScrapeToolTimeout, a.cfg.ScrapeTopN, a.database, a.logger)
	}

	var trender orchestrator.Trender
	if a.cfg.TrendsToolPath != "" {
		trender = trends.NewCollector(a.cfg.TrendsToolPath, a.cfg.TrendsToolTimeout, a.cfg.TrendsRegion, a.database, a.logger)
	}

	thresholds := orchestrator.Thresholds{
		WebContext: a.cfg.WebContextDoneCount,
		Discovery:  a.cfg.DiscoveryDoneCount,
		Analysis:   a.cfg.AnalysisDoneCount,
		Community:  a.cfg.CommunityDoneCount,
		Reliable:   a.cfg.QualityReliableScore,
	}

	return orchestrator.NewEngine(a.database, registry, resolver, scraper, analyzer, miner, trender, tracker, thresholds, a.logger)
}

func (a *App) newLLMClient() llm.Client {
	if a.cfg.LLMAPIKey == llmAPIKeyMock {
		a.logger.Warn().Msg("using mock generation client")
		return llm.NewMock()
	}

	return llm.NewOpenAI(a.cfg, a.logger)
}

func splitEngines(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	engines := make([]string, 0, len(parts))

	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			engines = append(engines, trimmed)
		}
	}

	return engines
}
