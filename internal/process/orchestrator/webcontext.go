package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/domain"
	"github.com/brandscout/brandscout/internal/core/ports"
	"github.com/brandscout/brandscout/internal/process/discovery"
	db "github.com/brandscout/brandscout/internal/storage"
)

// Source type constants for raw search results.
const (
	sourceSocial  = "social"
	sourceForum   = "forum"
	sourceReview  = "review"
	sourceArticle = "article"
	sourceOther   = "other"
)

const webContextResultsPerQuery = 10

// webContextQueries builds the brand research query set.
func webContextQueries(rctx domain.ResearchContext) []string {
	brand := rctx.BrandName
	if brand == "" {
		brand = rctx.Handle
	}

	queries := []string{
		fmt.Sprintf("%s brand", brand),
		fmt.Sprintf("%s review", brand),
		fmt.Sprintf("what is %s", brand),
		fmt.Sprintf("@%s instagram", rctx.Handle),
	}

	if rctx.Niche != "" {
		queries = append(queries, fmt.Sprintf("%s %s", brand, rctx.Niche))
	}

	return queries
}

// classifySource buckets a URL into a coarse source family.
func classifySource(rawURL string) string {
	lower := strings.ToLower(rawURL)

	switch {
	case containsAny(lower, "instagram.com", "tiktok.com", "youtube.com", "twitter.com", "x.com", "facebook.com", "linkedin.com"):
		return sourceSocial
	case containsAny(lower, "reddit.com", "quora.com", "news.ycombinator.com", "forum", "community"):
		return sourceForum
	case containsAny(lower, "trustpilot.com", "yelp.com", "g2.com", "review"):
		return sourceReview
	case containsAny(lower, "medium.com", "substack.com", "blog", "news"):
		return sourceArticle
	default:
		return sourceOther
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}

// runWebContext executes the query set and persists raw results. Duplicate
// URLs within the pass are dropped before insert; the store drops the rest.
func runWebContext(ctx context.Context, searcher discovery.Searcher, store ports.SearchResultStore, rctx domain.ResearchContext, logger *zerolog.Logger) (int, []domain.StepError) {
	var (
		batch    []db.RawSearchResult
		stepErrs []domain.StepError
	)

	seen := make(map[string]bool)

	for _, query := range webContextQueries(rctx) {
		if ctx.Err() != nil {
			break
		}

		results, err := searcher.Search(ctx, query, webContextResultsPerQuery)
		if err != nil {
			stepErrs = append(stepErrs, domain.StepError{Step: StepWebContext, Layer: query, Err: err})

			logger.Warn().Err(err).Str("query", query).Msg("web context query failed")

			continue
		}

		for _, res := range results {
			if res.URL == "" || seen[res.URL] {
				continue
			}

			seen[res.URL] = true

			batch = append(batch, db.RawSearchResult{
				JobID:      rctx.JobID,
				Query:      query,
				Title:      res.Title,
				URL:        res.URL,
				Snippet:    res.Snippet,
				SourceType: classifySource(res.URL),
			})
		}
	}

	if len(batch) == 0 {
		return 0, stepErrs
	}

	saved, err := store.SaveSearchResults(ctx, batch)
	if err != nil {
		stepErrs = append(stepErrs, domain.StepError{Step: StepWebContext, Layer: "persist", Err: err})
		return 0, stepErrs
	}

	return saved, stepErrs
}
