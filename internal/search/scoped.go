package search

import (
	"context"
	"fmt"
)

// DefaultPlatformDomains lists the social platforms the scoped provider
// searches when none are configured.
var DefaultPlatformDomains = []string{
	"instagram.com",
	"tiktok.com",
	"youtube.com",
	"twitter.com",
}

// ScopedProvider wraps a general provider and scopes every query to a fixed
// set of platform domains with "site:" operators. It is the platform/
// site-scoped search implementation.
type ScopedProvider struct {
	inner   Provider
	domains []string
}

// NewScopedProvider creates a site-scoped provider over a general one.
func NewScopedProvider(inner Provider, domains []string) *ScopedProvider {
	if len(domains) == 0 {
		domains = DefaultPlatformDomains
	}

	return &ScopedProvider{inner: inner, domains: domains}
}

// Name returns the provider name.
func (p *ScopedProvider) Name() ProviderName {
	return ProviderScoped
}

func (p *ScopedProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// Search fans the query out across the configured platform domains and
// merges results, keeping the first occurrence of each URL.
func (p *ScopedProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	perDomain := maxResults / len(p.domains)
	if perDomain < 1 {
		perDomain = 1
	}

	merged := make([]Result, 0, maxResults)
	seen := make(map[string]bool)

	var lastErr error

	for _, domain := range p.domains {
		if ctx.Err() != nil {
			break
		}

		if len(merged) >= maxResults {
			break
		}

		results, err := p.inner.Search(ctx, fmt.Sprintf("%s site:%s", query, domain), perDomain)
		if err != nil {
			lastErr = err
			continue
		}

		for _, r := range results {
			if seen[r.URL] || len(merged) >= maxResults {
				continue
			}

			seen[r.URL] = true
			merged = append(merged, r)
		}
	}

	if len(merged) == 0 && lastErr != nil {
		return nil, fmt.Errorf("scoped search: %w", lastErr)
	}

	return merged, nil
}
