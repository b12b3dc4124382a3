// Package community mines discussion sites for authentic mentions of the
// brand. Insertion is idempotent per (job, url), so overlapping queries and
// reruns never duplicate an insight.
package community

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/domain"
	"github.com/brandscout/brandscout/internal/core/ports"
	"github.com/brandscout/brandscout/internal/platform/observability"
	"github.com/brandscout/brandscout/internal/process/discovery"
	"github.com/brandscout/brandscout/internal/search"
)

const (
	stepName = "community"

	defaultMaxContentLen   = 5000
	defaultFetchTimeout    = 15 * time.Second
	defaultResultsPerQuery = 10
)

// communityDomains are the discussion-site families an insight may come
// from. URLs outside this list and without a community path token are
// rejected regardless of content.
var communityDomains = map[string]string{
	"reddit.com":           "reddit",
	"quora.com":            "quora",
	"stackexchange.com":    "stackexchange",
	"trustpilot.com":       "trustpilot",
	"yelp.com":             "yelp",
	"news.ycombinator.com": "hackernews",
}

var communityPathTokens = []string{"forum", "community", "discuss", "thread"}

// Config tunes the miner.
type Config struct {
	MaxContentLen int
	MaxPerQuery   int
	FetchTimeout  time.Duration
	FetchContent  bool // when false, the search snippet is stored as content
}

// Miner searches discussion sites and stores gated insights.
type Miner struct {
	cfg      Config
	store    ports.InsightStore
	searcher discovery.Searcher
	client   *http.Client
	logger   *zerolog.Logger
}

// NewMiner wires the community miner.
func NewMiner(cfg Config, store ports.InsightStore, searcher discovery.Searcher, logger *zerolog.Logger) *Miner {
	if cfg.MaxContentLen <= 0 {
		cfg.MaxContentLen = defaultMaxContentLen
	}

	if cfg.MaxPerQuery <= 0 {
		cfg.MaxPerQuery = defaultResultsPerQuery
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}

	return &Miner{
		cfg:      cfg,
		store:    store,
		searcher: searcher,
		client:   &http.Client{Timeout: cfg.FetchTimeout},
		logger:   logger,
	}
}

// Result aggregates one mining pass.
type Result struct {
	Inserted   int
	Duplicates int
	Rejected   int
	Errors     []domain.StepError
}

// Queries builds the deterministic, deduplicated query set for the target.
func Queries(rctx domain.ResearchContext) []string {
	brand := rctx.BrandName
	if brand == "" {
		brand = rctx.Handle
	}

	raw := []string{
		fmt.Sprintf("%s reddit review", brand),
		fmt.Sprintf("%s reddit opinions", brand),
		fmt.Sprintf("\"@%s\" forum", rctx.Handle),
		fmt.Sprintf("%s trustpilot", brand),
		fmt.Sprintf("%s quora", brand),
		fmt.Sprintf("is %s worth it reddit", brand),
	}

	seen := make(map[string]bool, len(raw))

	var queries []string

	for _, q := range raw {
		if seen[q] {
			continue
		}

		seen[q] = true
		queries = append(queries, q)
	}

	return queries
}

// Mine runs the query set, gates each result and persists survivors.
// A failing query is recorded and skipped; the pass always completes.
func (m *Miner) Mine(ctx context.Context, rctx domain.ResearchContext) Result {
	var result Result

	seen := make(map[string]bool)

	for _, query := range Queries(rctx) {
		if ctx.Err() != nil {
			break
		}

		results, err := m.searcher.Search(ctx, query, m.cfg.MaxPerQuery)
		if err != nil {
			result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: query, Err: err})

			m.logger.Warn().Err(err).Str("query", query).Msg("community query failed")

			continue
		}

		for _, res := range results {
			if seen[res.URL] {
				continue
			}

			seen[res.URL] = true

			insight, ok := m.gate(rctx, res)
			if !ok {
				result.Rejected++
				continue
			}

			insight.Content = m.content(ctx, res)

			inserted, err := m.store.InsertCommunityInsight(ctx, insight)
			if err != nil {
				result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: query, Err: err})
				continue
			}

			if inserted {
				result.Inserted++
				observability.CommunityInsightsInserted.Inc()
			} else {
				result.Duplicates++
				observability.CommunityInsightsDuplicate.Inc()
			}
		}
	}

	m.logger.Info().
		Str("job_id", rctx.JobID).
		Int("inserted", result.Inserted).
		Int("duplicates", result.Duplicates).
		Int("rejected", result.Rejected).
		Msg("community mining done")

	return result
}

// gate applies the hard acceptance rules: the URL must belong to a
// discussion site and the result must actually mention the brand or handle.
// Niche overlap is advisory only, logged but never a rejection.
func (m *Miner) gate(rctx domain.ResearchContext, res search.Result) (*domain.CommunityInsight, bool) {
	source, ok := classifyCommunitySource(res.URL)
	if !ok {
		return nil, false
	}

	if !mentionsBrand(rctx, res.Title+" "+res.Snippet) {
		return nil, false
	}

	if rctx.Niche != "" && !strings.Contains(strings.ToLower(res.Title+" "+res.Snippet), strings.ToLower(rctx.Niche)) {
		m.logger.Debug().Str("url", res.URL).Msg("insight has no niche overlap")
	}

	insight := &domain.CommunityInsight{
		JobID:     rctx.JobID,
		Source:    source,
		URL:       res.URL,
		Title:     res.Title,
		Sentiment: domain.SentimentNeutral,
	}

	if res.Score > 0 {
		insight.Metric = "search_score"
		insight.MetricValue = res.Score
	}

	return insight, true
}

// content fetches the page body through readability, falling back to the
// search snippet on any failure, and caps the stored length.
func (m *Miner) content(ctx context.Context, res search.Result) string {
	text := res.Snippet

	if m.cfg.FetchContent {
		if fetched, err := m.fetchReadable(ctx, res.URL); err == nil && fetched != "" {
			text = fetched
		} else if err != nil {
			m.logger.Debug().Err(err).Str("url", res.URL).Msg("content fetch failed, keeping snippet")
		}
	}

	return truncate(text, m.cfg.MaxContentLen)
}

func (m *Miner) fetchReadable(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(article.TextContent), nil
}

// classifyCommunitySource maps a URL to its discussion-site family.
func classifyCommunitySource(rawURL string) (string, bool) {
	host := strings.ToLower(search.ExtractDomain(rawURL))

	for domainSuffix, source := range communityDomains {
		if host == domainSuffix || strings.HasSuffix(host, "."+domainSuffix) {
			return source, true
		}
	}

	lower := strings.ToLower(rawURL)
	for _, token := range communityPathTokens {
		if strings.Contains(lower, token) {
			return "forum", true
		}
	}

	return "", false
}

// mentionsBrand checks the brand name or handle appears in the text,
// case-insensitive and tolerant of a leading "@".
func mentionsBrand(rctx domain.ResearchContext, text string) bool {
	lower := strings.ToLower(text)

	if rctx.BrandName != "" && strings.Contains(lower, strings.ToLower(rctx.BrandName)) {
		return true
	}

	handle := domain.NormalizeHandle(rctx.Handle)

	return handle != "" && strings.Contains(strings.ReplaceAll(lower, "@", ""), handle)
}

// truncate cuts on rune boundaries so stored content stays valid UTF-8.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	return string([]rune(s)[:max])
}
