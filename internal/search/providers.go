// Package search defines the web-search provider boundary and its adapters.
package search

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"
)

type ProviderName string

const (
	ProviderSearxNG ProviderName = "searxng"
	ProviderScoped  ProviderName = "site_scoped"
)

var (
	ErrNoProvidersAvailable = errors.New("no providers available")
	errProviderNotFound     = errors.New("provider not found")
)

// Result is a single web search hit.
type Result struct {
	URL         string
	Title       string
	Snippet     string
	Domain      string
	PublishedAt time.Time
	Score       float64
}

// Provider is one web-search capability. Implementations carry their own
// bounded timeouts.
type Provider interface {
	Name() ProviderName
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
	IsAvailable(ctx context.Context) bool
}

// Registry holds providers in registration order and searches with fallback.
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderName]Provider
	order     []ProviderName

	circuitBreakers map[ProviderName]*circuitBreaker
}

func NewRegistry() *Registry {
	return &Registry{
		providers:       make(map[ProviderName]Provider),
		order:           []ProviderName{},
		circuitBreakers: make(map[ProviderName]*circuitBreaker),
	}
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	r.providers[name] = p
	r.order = append(r.order, name)
	r.circuitBreakers[name] = newCircuitBreaker()
}

func (r *Registry) Get(name ProviderName) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, errProviderNotFound
	}

	return p, nil
}

// SearchWithFallback tries providers in registration order and returns the
// first successful result set along with the provider that produced it.
func (r *Registry) SearchWithFallback(ctx context.Context, query string, maxResults int) ([]Result, ProviderName, error) {
	r.mu.RLock()
	providers := make([]ProviderName, len(r.order))
	copy(providers, r.order)
	r.mu.RUnlock()

	var lastErr error

	for _, name := range providers {
		provider, err := r.Get(name)
		if err != nil {
			continue
		}

		if !provider.IsAvailable(ctx) {
			continue
		}

		cb := r.getCircuitBreaker(name)
		if !cb.canAttempt() {
			continue
		}

		results, err := provider.Search(ctx, query, maxResults)
		if err != nil {
			cb.recordFailure()

			lastErr = err

			continue
		}

		cb.recordSuccess()

		return results, name, nil
	}

	if lastErr != nil {
		return nil, "", lastErr
	}

	return nil, "", ErrNoProvidersAvailable
}

// Search is SearchWithFallback without the provider attribution, for
// callers that only care about results.
func (r *Registry) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	results, _, err := r.SearchWithFallback(ctx, query, maxResults)
	return results, err
}

func (r *Registry) AvailableProviders(ctx context.Context) []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	available := []ProviderName{}

	for _, name := range r.order {
		p := r.providers[name]
		if p.IsAvailable(ctx) && r.circuitBreakers[name].canAttempt() {
			available = append(available, name)
		}
	}

	return available
}

func (r *Registry) getCircuitBreaker(name ProviderName) *circuitBreaker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.circuitBreakers[name]
}

// ExtractDomain returns the host part of a raw URL, or "" when unparsable.
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return parsed.Host
}
