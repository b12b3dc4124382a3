package search

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type scriptedProvider struct {
	name      ProviderName
	available bool
	results   []Result
	err       error
	queries   []string
}

func (p *scriptedProvider) Name() ProviderName { return p.name }

func (p *scriptedProvider) IsAvailable(_ context.Context) bool { return p.available }

func (p *scriptedProvider) Search(_ context.Context, query string, _ int) ([]Result, error) {
	p.queries = append(p.queries, query)
	return p.results, p.err
}

func TestRegistry_SearchWithFallback(t *testing.T) {
	t.Run("first available provider wins", func(t *testing.T) {
		primary := &scriptedProvider{name: "primary", available: true, results: []Result{{URL: "https://a"}}}
		secondary := &scriptedProvider{name: "secondary", available: true, results: []Result{{URL: "https://b"}}}

		r := NewRegistry()
		r.Register(primary)
		r.Register(secondary)

		results, name, err := r.SearchWithFallback(context.Background(), "q", 5)
		if err != nil {
			t.Fatal(err)
		}

		if name != "primary" || results[0].URL != "https://a" {
			t.Errorf("got %q/%v, want primary result", name, results)
		}

		if len(secondary.queries) != 0 {
			t.Error("secondary provider was called although primary succeeded")
		}
	})

	t.Run("falls back past failing provider", func(t *testing.T) {
		broken := &scriptedProvider{name: "broken", available: true, err: errors.New("boom")}
		backup := &scriptedProvider{name: "backup", available: true, results: []Result{{URL: "https://b"}}}

		r := NewRegistry()
		r.Register(broken)
		r.Register(backup)

		results, name, err := r.SearchWithFallback(context.Background(), "q", 5)
		if err != nil {
			t.Fatal(err)
		}

		if name != "backup" || len(results) != 1 {
			t.Errorf("got %q with %d results, want backup fallback", name, len(results))
		}
	})

	t.Run("skips unavailable providers", func(t *testing.T) {
		down := &scriptedProvider{name: "down", available: false, results: []Result{{URL: "https://x"}}}

		r := NewRegistry()
		r.Register(down)

		_, _, err := r.SearchWithFallback(context.Background(), "q", 5)
		if !errors.Is(err, ErrNoProvidersAvailable) {
			t.Fatalf("err = %v, want ErrNoProvidersAvailable", err)
		}

		if len(down.queries) != 0 {
			t.Error("unavailable provider was queried")
		}
	})

	t.Run("returns last error when all fail", func(t *testing.T) {
		failing := &scriptedProvider{name: "failing", available: true, err: errors.New("boom")}

		r := NewRegistry()
		r.Register(failing)

		_, _, err := r.SearchWithFallback(context.Background(), "q", 5)
		if err == nil || errors.Is(err, ErrNoProvidersAvailable) {
			t.Fatalf("err = %v, want the provider failure", err)
		}
	})
}

func TestRegistry_CircuitBreakerSkipsAfterFailures(t *testing.T) {
	failing := &scriptedProvider{name: "flaky", available: true, err: errors.New("boom")}

	r := NewRegistry()
	r.Register(failing)

	for i := 0; i < circuitBreakerThreshold; i++ {
		_, _, _ = r.SearchWithFallback(context.Background(), "q", 5)
	}

	attempts := len(failing.queries)

	// The breaker is open now, the provider must not be called again.
	_, _, err := r.SearchWithFallback(context.Background(), "q", 5)
	if !errors.Is(err, ErrNoProvidersAvailable) {
		t.Fatalf("err = %v, want ErrNoProvidersAvailable with an open breaker", err)
	}

	if len(failing.queries) != attempts {
		t.Errorf("provider called %d times, want %d (breaker open)", len(failing.queries), attempts)
	}
}

func TestScopedProvider_Search(t *testing.T) {
	inner := &scriptedProvider{name: ProviderSearxNG, available: true, results: []Result{
		{URL: "https://instagram.com/acme"},
	}}

	p := NewScopedProvider(inner, []string{"instagram.com", "tiktok.com"})

	results, err := p.Search(context.Background(), "acme coffee", 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(inner.queries) != 2 {
		t.Fatalf("inner queries = %d, want one per domain", len(inner.queries))
	}

	for i, domain := range []string{"instagram.com", "tiktok.com"} {
		if !strings.Contains(inner.queries[i], "site:"+domain) {
			t.Errorf("query %q missing site:%s operator", inner.queries[i], domain)
		}
	}

	// Both domains returned the same URL; the merge keeps one.
	if len(results) != 1 {
		t.Errorf("results = %d, want 1 after URL dedup", len(results))
	}
}

func TestScopedProvider_DefaultDomains(t *testing.T) {
	inner := &scriptedProvider{name: ProviderSearxNG, available: true}
	p := NewScopedProvider(inner, nil)

	if _, err := p.Search(context.Background(), "q", 20); err != nil {
		t.Fatal(err)
	}

	if len(inner.queries) != len(DefaultPlatformDomains) {
		t.Errorf("queries = %d, want %d default domains", len(inner.queries), len(DefaultPlatformDomains))
	}
}

func TestExtractDomain(t *testing.T) {
	if got := ExtractDomain("https://www.instagram.com/acme?hl=en"); got != "www.instagram.com" {
		t.Errorf("ExtractDomain = %q", got)
	}

	if got := ExtractDomain("://bad"); got != "" {
		t.Errorf("ExtractDomain = %q, want empty for invalid URL", got)
	}
}
