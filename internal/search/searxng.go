package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/time/rate"

	"github.com/brandscout/brandscout/internal/platform/observability"
)

const (
	searxngDefaultTimeout     = 30 * time.Second
	searxngSearchPath         = "/search"
	searxngHealthCheckTimeout = 5 * time.Second
	searxngResponseFormatJSON = "json"
	searxngCategoriesGeneral  = "general"
	searxngRateBurst          = 2
	searxngDefaultMaxResults  = 10

	searchResultSuccess = "success"
	searchResultError   = "error"

	httpHeaderAccept    = "Accept"
	httpContentTypeJSON = "application/json"
)

var (
	errSearxNGUnexpectedStatus = errors.New("searxng unexpected status")
	errSearxNGAPIError         = errors.New("searxng api error")
)

// SearxNGProvider implements Provider for SearxNG metasearch instances.
type SearxNGProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	engines    []string // optional: limit to specific engines
	maxResults int      // per-request result cap
}

// SearxNGConfig holds configuration for the SearxNG provider.
type SearxNGConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RPS        float64
	Engines    []string // optional: e.g., ["google", "duckduckgo", "bing"]
	MaxResults int      // optional: caps every request, 0 means default
}

// NewSearxNGProvider creates a new SearxNG provider instance.
func NewSearxNGProvider(cfg SearxNGConfig) *SearxNGProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = searxngDefaultTimeout
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = searxngDefaultMaxResults
	}

	return &SearxNGProvider{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(rps), searxngRateBurst),
		engines:    cfg.Engines,
		maxResults: maxResults,
	}
}

// Name returns the provider name.
func (p *SearxNGProvider) Name() ProviderName {
	return ProviderSearxNG
}

func (p *SearxNGProvider) IsAvailable(ctx context.Context) bool {
	if p.baseURL == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, searxngHealthCheckTimeout)
	defer cancel()

	// SearxNG has a /config endpoint that returns instance configuration
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/config", nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	return resp.StatusCode == http.StatusOK
}

// Search performs a search query against the SearxNG instance. maxResults
// is clamped to the provider's configured cap.
func (p *SearxNGProvider) Search(ctx context.Context, query string, maxResults int) (results []Result, err error) {
	defer func() {
		outcome := searchResultSuccess
		if err != nil {
			outcome = searchResultError
		}

		observability.SearchRequests.WithLabelValues(string(p.Name()), outcome).Inc()
	}()

	if maxResults <= 0 || maxResults > p.maxResults {
		maxResults = p.maxResults
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("searxng rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildSearchURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("create searxng request: %w", err)
	}

	// SearxNG requires Accept header for JSON responses
	req.Header.Set(httpHeaderAccept, httpContentTypeJSON)

	start := time.Now()

	resp, err := p.httpClient.Do(req)

	observability.SearchRequestDuration.WithLabelValues(string(p.Name())).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("searxng request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errSearxNGUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read searxng response: %w", err)
	}

	return p.parseResponse(body, maxResults)
}

func (p *SearxNGProvider) buildSearchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", searxngResponseFormatJSON)
	params.Set("categories", searxngCategoriesGeneral)

	// Add engine filter if specified
	if len(p.engines) > 0 {
		params.Set("engines", strings.Join(p.engines, ","))
	}

	return p.baseURL + searxngSearchPath + "?" + params.Encode()
}

// searxngResponse represents the JSON response from SearxNG.
type searxngResponse struct {
	Query   string          `json:"query"`
	Results []searxngResult `json:"results"`
}

// searxngResult represents a single search result from SearxNG.
type searxngResult struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"publishedDate"` //nolint:tagliatelle // SearxNG API uses camelCase
	Engine        string  `json:"engine"`
	Score         float64 `json:"score"`
	Category      string  `json:"category"`
}

func (p *SearxNGProvider) parseResponse(body []byte, maxResults int) ([]Result, error) {
	if err := checkSearxNGError(body); err != nil {
		return nil, err
	}

	var resp searxngResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse searxng json: %w", err)
	}

	results := make([]Result, 0, min(len(resp.Results), maxResults))

	for _, item := range resp.Results {
		if len(results) >= maxResults {
			break
		}

		if item.URL == "" {
			continue
		}

		result := Result{
			URL:     item.URL,
			Title:   item.Title,
			Snippet: item.Content,
			Domain:  ExtractDomain(item.URL),
			Score:   item.Score,
		}

		// SearxNG returns dates in whatever format the source engine used
		if item.PublishedDate != "" {
			if t, err := dateparse.ParseAny(item.PublishedDate); err == nil {
				result.PublishedAt = t
			}
		}

		results = append(results, result)
	}

	return results, nil
}

func checkSearxNGError(body []byte) error {
	if len(body) > 0 && body[0] != '{' && body[0] != '[' {
		// Not JSON, likely an error message or HTML page from SearxNG
		errMsg := string(body)
		if len(errMsg) > 200 {
			errMsg = errMsg[:200] + "..."
		}

		return fmt.Errorf("%w: %s", errSearxNGAPIError, errMsg)
	}

	return nil
}
