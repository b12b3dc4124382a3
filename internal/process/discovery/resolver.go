// Package discovery resolves competitor candidates for a target through an
// ordered chain of fallback layers. Each layer is independently catchable:
// a failing layer is recorded and skipped, never fatal to the chain.
package discovery

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/domain"
	"github.com/brandscout/brandscout/internal/platform/observability"
	"github.com/brandscout/brandscout/internal/process/health"
	"github.com/brandscout/brandscout/internal/search"
)

const (
	stepName = "discovery"

	// Relevance assigned at creation time per layer. Platform search is
	// strongest because it matches exact profile URLs.
	platformSearchScore = 0.85
	keywordSearchScore  = 0.75

	defaultMinCandidates = 5
	defaultMaxCandidates = 20
	defaultMinConfidence = 0.5

	searchResultsPerQuery = 10
)

// Searcher is the slice of the search provider the resolver needs.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]search.Result, error)
}

// SubprocessTool is the legacy discovery tool collaborator.
type SubprocessTool interface {
	Discover(ctx context.Context, handle, bio, niche string, limit int) ([]domain.CandidateCompetitor, error)
}

// Browser is the browser-automation fallback collaborator.
type Browser interface {
	SearchCompetitors(ctx context.Context, handle, niche string) ([]string, error)
}

// ValidationResult is the verdict for one candidate.
type ValidationResult struct {
	Handle     string
	Platform   string
	Confidence float32
	Keep       bool
}

// Validator re-scores or rejects a merged candidate batch.
type Validator interface {
	ValidateBatch(ctx context.Context, candidates []domain.CandidateCompetitor, niche, targetHandle string) ([]ValidationResult, error)
}

// Config tunes the resolver.
type Config struct {
	MinCandidates int     // fallback layers fire below this
	MaxCandidates int     // early-stop bound for search layers
	MinConfidence float32 // validation threshold
}

// Resolver runs the layered discovery chain.
type Resolver struct {
	cfg            Config
	platformSearch Searcher
	keywordSearch  Searcher
	tool           SubprocessTool
	browser        Browser
	validator      Validator
	health         *health.Tracker
	logger         *zerolog.Logger
}

// NewResolver wires the discovery chain. tool, browser and validator may be
// nil; the corresponding layer or stage is then skipped.
func NewResolver(cfg Config, platformSearch, keywordSearch Searcher, tool SubprocessTool, browser Browser, validator Validator, tracker *health.Tracker, logger *zerolog.Logger) *Resolver {
	if cfg.MinCandidates <= 0 {
		cfg.MinCandidates = defaultMinCandidates
	}

	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaultMaxCandidates
	}

	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = defaultMinConfidence
	}

	return &Resolver{
		cfg:            cfg,
		platformSearch: platformSearch,
		keywordSearch:  keywordSearch,
		tool:           tool,
		browser:        browser,
		validator:      validator,
		health:         tracker,
		logger:         logger,
	}
}

// Result is the outcome of one discovery resolution.
type Result struct {
	Candidates []domain.CandidateCompetitor
	Errors     []domain.StepError
	LayersUsed []string
}

// Resolve produces a deduplicated, validated candidate set for the target.
// Zero surviving candidates is not an error: the caller logs a low-yield
// warning and the engine never fabricates competitors.
func (r *Resolver) Resolve(ctx context.Context, rctx domain.ResearchContext) Result {
	state := newMergeState()
	result := Result{}

	// Layer 1: direct platform search for the target's own name.
	r.runLayer(ctx, domain.LayerPlatformSearch, &result, func() (int, error) {
		return r.platformSearchLayer(ctx, rctx, state)
	})

	// Layer 2: keyword/niche search. Cheap and additive, so it always
	// runs regardless of layer-1 yield.
	r.runLayer(ctx, domain.LayerKeywordSearch, &result, func() (int, error) {
		return r.keywordSearchLayer(ctx, rctx, state)
	})

	// Layer 3: legacy subprocess tool, last-resort and higher latency.
	if state.len() < r.cfg.MinCandidates && r.tool != nil {
		r.runLayer(ctx, domain.LayerSubprocess, &result, func() (int, error) {
			return r.subprocessLayer(ctx, rctx, state)
		})
	}

	// Layer 4: browser automation, only when nothing else yielded enough.
	if state.len() < r.cfg.MinCandidates && r.browser != nil {
		r.runLayer(ctx, domain.LayerBrowser, &result, func() (int, error) {
			return r.browserLayer(ctx, rctx, state)
		})
	}

	merged := state.candidates()

	validated, verr := r.validate(ctx, merged, rctx)
	if verr != nil {
		// Validation failure keeps the merged set rather than losing it.
		result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: "validation", Err: verr})
		validated = merged
	}

	sort.SliceStable(validated, func(i, j int) bool {
		return validated[i].RelevanceScore > validated[j].RelevanceScore
	})

	if len(validated) == 0 {
		r.logger.Warn().
			Str("handle", rctx.Handle).
			Msg("discovery yielded no candidates")
	}

	result.Candidates = validated

	return result
}

// runLayer executes one layer, recording its usage, yield and failure.
func (r *Resolver) runLayer(ctx context.Context, layer domain.DiscoveryLayer, result *Result, fn func() (int, error)) {
	if ctx.Err() != nil {
		return
	}

	name := layer.String()
	result.LayersUsed = append(result.LayersUsed, name)

	added, err := fn()
	if err != nil {
		observability.DiscoveryLayerFailures.WithLabelValues(name).Inc()
		r.health.MarkDegraded(name, err.Error())
		result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: name, Err: err})

		r.logger.Warn().Err(err).Str("layer", name).Msg("discovery layer failed")

		return
	}

	observability.DiscoveryLayerCandidates.WithLabelValues(name).Add(float64(added))
	r.health.MarkOK(name)

	r.logger.Debug().Str("layer", name).Int("added", added).Msg("discovery layer done")
}

func (r *Resolver) platformSearchLayer(ctx context.Context, rctx domain.ResearchContext, state *mergeState) (int, error) {
	query := rctx.BrandName
	if query == "" {
		query = rctx.Handle
	}

	results, err := r.platformSearch.Search(ctx, query, searchResultsPerQuery)
	if err != nil {
		return 0, fmt.Errorf("platform search: %w", err)
	}

	added := 0

	for _, res := range results {
		handle, platform, ok := HandleFromURL(res.URL)
		if !ok || handle == rctx.Handle {
			continue
		}

		if state.add(domain.CandidateCompetitor{
			Handle:          handle,
			Platform:        platform,
			DiscoveryReason: fmt.Sprintf("profile found on %s for %q", platform, query),
			RelevanceScore:  platformSearchScore,
			CompetitorType:  domain.CompetitorTypeDirect,
			Layer:           domain.LayerPlatformSearch,
		}) {
			added++
		}

		if state.len() >= r.cfg.MaxCandidates {
			break
		}
	}

	return added, nil
}

func (r *Resolver) keywordSearchLayer(ctx context.Context, rctx domain.ResearchContext, state *mergeState) (int, error) {
	queries := []string{
		fmt.Sprintf("%s competitors of %s", rctx.Niche, rctx.Handle),
		fmt.Sprintf("best %s instagram accounts", rctx.Niche),
		fmt.Sprintf("top %s creators", rctx.Niche),
	}

	added := 0

	var lastErr error

	for _, query := range queries {
		if ctx.Err() != nil || state.len() >= r.cfg.MaxCandidates {
			break
		}

		results, err := r.keywordSearch.Search(ctx, query, searchResultsPerQuery)
		if err != nil {
			lastErr = err
			continue
		}

		for _, res := range results {
			handle, platform, ok := HandleFromURL(res.URL)
			if !ok || handle == rctx.Handle {
				continue
			}

			if state.add(domain.CandidateCompetitor{
				Handle:          handle,
				Platform:        platform,
				DiscoveryReason: fmt.Sprintf("matched keyword query %q", query),
				RelevanceScore:  keywordSearchScore,
				CompetitorType:  domain.CompetitorTypeIndirect,
				Layer:           domain.LayerKeywordSearch,
			}) {
				added++
			}
		}
	}

	if added == 0 && lastErr != nil {
		return 0, fmt.Errorf("keyword search: %w", lastErr)
	}

	return added, nil
}

func (r *Resolver) subprocessLayer(ctx context.Context, rctx domain.ResearchContext, state *mergeState) (int, error) {
	limit := r.cfg.MaxCandidates - state.len()

	candidates, err := r.tool.Discover(ctx, rctx.Handle, rctx.Bio, rctx.Niche, limit)
	if err != nil {
		return 0, fmt.Errorf("subprocess tool: %w", err)
	}

	added := 0

	for _, c := range candidates {
		c.Layer = domain.LayerSubprocess

		if state.add(c) {
			added++
		}
	}

	return added, nil
}

func (r *Resolver) browserLayer(ctx context.Context, rctx domain.ResearchContext, state *mergeState) (int, error) {
	handles, err := r.browser.SearchCompetitors(ctx, rctx.Handle, rctx.Niche)
	if err != nil {
		return 0, fmt.Errorf("browser fallback: %w", err)
	}

	added := 0

	for _, handle := range handles {
		if domain.NormalizeHandle(handle) == rctx.Handle {
			continue
		}

		if state.add(domain.CandidateCompetitor{
			Handle:          handle,
			Platform:        "instagram",
			DiscoveryReason: "browser search result",
			RelevanceScore:  keywordSearchScore,
			CompetitorType:  domain.CompetitorTypeIndirect,
			Layer:           domain.LayerBrowser,
		}) {
			added++
		}
	}

	return added, nil
}

// validate is the only point where a discovered candidate can be removed
// rather than merely not-added. Confidence below the threshold drops the
// candidate; otherwise its score is rewritten with the validator's verdict.
func (r *Resolver) validate(ctx context.Context, candidates []domain.CandidateCompetitor, rctx domain.ResearchContext) ([]domain.CandidateCompetitor, error) {
	if r.validator == nil || len(candidates) == 0 {
		return candidates, nil
	}

	verdicts, err := r.validator.ValidateBatch(ctx, candidates, rctx.Niche, rctx.Handle)
	if err != nil {
		return nil, fmt.Errorf("validate batch: %w", err)
	}

	byKey := make(map[string]ValidationResult, len(verdicts))
	for _, v := range verdicts {
		byKey[v.Platform+"/"+domain.NormalizeHandle(v.Handle)] = v
	}

	kept := make([]domain.CandidateCompetitor, 0, len(candidates))

	for _, c := range candidates {
		verdict, ok := byKey[c.Key()]
		if !ok {
			// No verdict means the validator had no opinion; keep as-is.
			kept = append(kept, c)
			continue
		}

		if !verdict.Keep || verdict.Confidence < r.cfg.MinConfidence {
			r.logger.Debug().
				Str("handle", c.Handle).
				Float32("confidence", verdict.Confidence).
				Msg("candidate dropped by validation")

			continue
		}

		c.RelevanceScore = verdict.Confidence
		kept = append(kept, c)
	}

	return kept, nil
}

// mergeState deduplicates candidates by (platform, lowercased handle).
// The first writer wins; later duplicates are dropped.
type mergeState struct {
	seen  map[string]bool
	order []domain.CandidateCompetitor
}

func newMergeState() *mergeState {
	return &mergeState{seen: make(map[string]bool)}
}

func (s *mergeState) add(c domain.CandidateCompetitor) bool {
	handle := domain.NormalizeHandle(c.Handle)
	if handle == "" || c.Platform == "" {
		return false
	}

	key := c.Platform + "/" + handle
	if s.seen[key] {
		return false
	}

	s.seen[key] = true
	c.Handle = handle
	s.order = append(s.order, c)

	return true
}

func (s *mergeState) len() int {
	return len(s.order)
}

func (s *mergeState) candidates() []domain.CandidateCompetitor {
	out := make([]domain.CandidateCompetitor, len(s.order))
	copy(out, s.order)

	return out
}
