package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testBaseURL = "http://localhost:8888"

func TestNewSearxNGProvider(t *testing.T) {
	t.Run("uses default timeout when not specified", func(t *testing.T) {
		p := NewSearxNGProvider(SearxNGConfig{BaseURL: testBaseURL})

		if p.httpClient.Timeout != searxngDefaultTimeout {
			t.Errorf("got %v, want %v", p.httpClient.Timeout, searxngDefaultTimeout)
		}
	})

	t.Run("uses custom timeout when specified", func(t *testing.T) {
		customTimeout := 60 * time.Second
		p := NewSearxNGProvider(SearxNGConfig{BaseURL: testBaseURL, Timeout: customTimeout})

		if p.httpClient.Timeout != customTimeout {
			t.Errorf("got timeout %v, want %v", p.httpClient.Timeout, customTimeout)
		}
	})

	t.Run("trims trailing slash from URL", func(t *testing.T) {
		p := NewSearxNGProvider(SearxNGConfig{BaseURL: testBaseURL + "/"})

		if p.baseURL != testBaseURL {
			t.Errorf("got %q, want %q", p.baseURL, testBaseURL)
		}
	})
}

func TestSearxNGProvider_BuildSearchURL(t *testing.T) {
	p := NewSearxNGProvider(SearxNGConfig{
		BaseURL: testBaseURL,
		Engines: []string{"google", "duckduckgo"},
	})

	u := p.buildSearchURL("acme coffee")

	for _, want := range []string{"q=acme+coffee", "format=json", "categories=general", "engines=google%2Cduckduckgo"} {
		if !strings.Contains(u, want) {
			t.Errorf("url %q missing %q", u, want)
		}
	}
}

func TestSearxNGProvider_Search(t *testing.T) {
	t.Run("configured cap clamps oversized requests", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"query": "acme",
				"results": [
					{"url": "https://example.com/1", "title": "One"},
					{"url": "https://example.com/2", "title": "Two"},
					{"url": "https://example.com/3", "title": "Three"}
				]
			}`))
		}))
		defer server.Close()

		p := NewSearxNGProvider(SearxNGConfig{BaseURL: server.URL, RPS: 100, MaxResults: 1})

		results, err := p.Search(context.Background(), "acme", 50)
		if err != nil {
			t.Fatal(err)
		}

		if len(results) != 1 {
			t.Fatalf("got %d results, want the configured cap of 1", len(results))
		}
	})

	t.Run("parses results and caps at maxResults", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if accept := r.Header.Get("Accept"); accept != "application/json" {
				t.Errorf("Accept = %q, want application/json", accept)
			}

			_, _ = w.Write([]byte(`{
				"query": "acme",
				"results": [
					{"url": "https://example.com/1", "title": "One", "content": "first", "publishedDate": "2024-05-01", "score": 2.5},
					{"url": "https://example.com/2", "title": "Two", "content": "second"},
					{"url": "", "title": "dropped"},
					{"url": "https://example.com/3", "title": "Three"}
				]
			}`))
		}))
		defer server.Close()

		p := NewSearxNGProvider(SearxNGConfig{BaseURL: server.URL, RPS: 100})

		results, err := p.Search(context.Background(), "acme", 2)
		if err != nil {
			t.Fatal(err)
		}

		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}

		first := results[0]
		if first.Title != "One" || first.Snippet != "first" || first.Domain != "example.com" {
			t.Errorf("unexpected first result %+v", first)
		}

		if first.PublishedAt.IsZero() {
			t.Error("publishedDate was not parsed")
		}

		if first.Score != 2.5 {
			t.Errorf("Score = %v, want 2.5", first.Score)
		}
	})

	t.Run("non-JSON body becomes a truncated error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>Too Many Requests " + strings.Repeat("x", 500) + "</html>"))
		}))
		defer server.Close()

		p := NewSearxNGProvider(SearxNGConfig{BaseURL: server.URL, RPS: 100})

		_, err := p.Search(context.Background(), "acme", 5)
		if err == nil {
			t.Fatal("expected error for non-JSON body")
		}

		if len(err.Error()) > 300 {
			t.Errorf("error not truncated: %d chars", len(err.Error()))
		}
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		p := NewSearxNGProvider(SearxNGConfig{BaseURL: server.URL, RPS: 100})

		if _, err := p.Search(context.Background(), "acme", 5); err == nil {
			t.Fatal("expected error for 403")
		}
	})
}

func TestSearxNGProvider_IsAvailable(t *testing.T) {
	t.Run("false when no base URL", func(t *testing.T) {
		p := NewSearxNGProvider(SearxNGConfig{})

		if p.IsAvailable(context.Background()) {
			t.Error("expected unavailable without a base URL")
		}
	})

	t.Run("true when server responds", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		p := NewSearxNGProvider(SearxNGConfig{BaseURL: server.URL})

		if !p.IsAvailable(context.Background()) {
			t.Error("expected available when server responds")
		}
	})
}
