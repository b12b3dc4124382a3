package discovery

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/domain"
)

const (
	defaultBrowserTimeout = 60 * time.Second
	maxBrowserHandles     = 15
)

// RodBrowser is the headless-browser discovery fallback. The browser is
// launched lazily on first use and shared across calls, so it lives on a
// context owned by RodBrowser rather than any single call's context.
type RodBrowser struct {
	timeout time.Duration
	logger  *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	browser *rod.Browser
}

// NewRodBrowser builds the fallback. The browser process is not started
// until SearchCompetitors is first called.
func NewRodBrowser(timeout time.Duration, logger *zerolog.Logger) *RodBrowser {
	if timeout <= 0 {
		timeout = defaultBrowserTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &RodBrowser{timeout: timeout, logger: logger, ctx: ctx, cancel: cancel}
}

func (b *RodBrowser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(b.ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	b.browser = browser

	return browser, nil
}

// SearchCompetitors drives a DuckDuckGo HTML search for accounts similar to
// the target and extracts bare handles from the result links.
func (b *RodBrowser) SearchCompetitors(ctx context.Context, handle, niche string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	browser, err := b.connect()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("instagram accounts like @%s %s", handle, niche)
	searchURL := "https://duckduckgo.com/html/?q=" + url.QueryEscape(query)

	page, err := browser.Page(proto.TargetCreateTarget{URL: searchURL})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx)

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	links, err := page.Elements("a[href]")
	if err != nil {
		return nil, fmt.Errorf("collect links: %w", err)
	}

	seen := make(map[string]bool)

	var handles []string

	for _, link := range links {
		href, err := link.Attribute("href")
		if err != nil || href == nil {
			continue
		}

		candidate, _, ok := HandleFromURL(*href)
		if !ok || candidate == domain.NormalizeHandle(handle) || seen[candidate] {
			continue
		}

		seen[candidate] = true
		handles = append(handles, candidate)

		if len(handles) >= maxBrowserHandles {
			break
		}
	}

	b.logger.Debug().Int("handles", len(handles)).Msg("browser search finished")

	return handles, nil
}

// Close shuts the browser down if it was started.
func (b *RodBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cancel()

	if b.browser == nil {
		return nil
	}

	err := b.browser.Close()
	b.browser = nil

	return err
}
