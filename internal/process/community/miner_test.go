package community

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/domain"
	"github.com/brandscout/brandscout/internal/search"
)

type memoryInsightStore struct {
	insights map[string]domain.CommunityInsight
	inserts  int
}

func newMemoryInsightStore() *memoryInsightStore {
	return &memoryInsightStore{insights: make(map[string]domain.CommunityInsight)}
}

func (s *memoryInsightStore) InsertCommunityInsight(_ context.Context, insight *domain.CommunityInsight) (bool, error) {
	key := insight.JobID + "/" + insight.URL
	if _, ok := s.insights[key]; ok {
		return false, nil
	}

	s.insights[key] = *insight
	s.inserts++

	return true, nil
}

func (s *memoryInsightStore) CountCommunityInsights(_ context.Context, jobID string) (int, error) {
	count := 0

	for _, insight := range s.insights {
		if insight.JobID == jobID {
			count++
		}
	}

	return count, nil
}

type stubSearcher struct {
	results []search.Result
	err     error
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ int) ([]search.Result, error) {
	return s.results, s.err
}

func testMiner(store *memoryInsightStore, searcher *stubSearcher) *Miner {
	logger := zerolog.Nop()
	return NewMiner(Config{FetchContent: false}, store, searcher, &logger)
}

func coffeeContext() domain.ResearchContext {
	return domain.ResearchContext{
		JobID:     "job-1",
		BrandName: "Acme Coffee",
		Handle:    "acme_coffee",
		Niche:     "specialty coffee",
	}
}

func TestMine_GatesNonCommunitySources(t *testing.T) {
	searcher := &stubSearcher{results: []search.Result{
		{
			URL:     "https://www.reddit.com/r/coffee/comments/abc/acme_thoughts/",
			Title:   "Thoughts on Acme Coffee?",
			Snippet: "Been drinking Acme Coffee for a month now.",
		},
		{
			// Mentions the brand but is not a discussion site.
			URL:     "https://www.acmecoffee.com/about",
			Title:   "About Acme Coffee",
			Snippet: "Acme Coffee roasts small batches.",
		},
		{
			// Discussion site but never mentions the brand.
			URL:     "https://www.reddit.com/r/coffee/comments/xyz/grinder_advice/",
			Title:   "Grinder advice needed",
			Snippet: "Which grinder should I buy?",
		},
	}}

	store := newMemoryInsightStore()
	result := testMiner(store, searcher).Mine(context.Background(), coffeeContext())

	if result.Inserted != 1 {
		t.Fatalf("Inserted = %d, want 1", result.Inserted)
	}

	if result.Rejected != 2 {
		t.Errorf("Rejected = %d, want 2", result.Rejected)
	}

	for _, insight := range store.insights {
		if insight.Source != "reddit" {
			t.Errorf("Source = %q, want reddit", insight.Source)
		}

		if insight.Sentiment != domain.SentimentNeutral {
			t.Errorf("Sentiment = %q, want neutral", insight.Sentiment)
		}
	}
}

func TestMine_HandleMentionCountsAsBrandMention(t *testing.T) {
	searcher := &stubSearcher{results: []search.Result{
		{
			URL:     "https://www.quora.com/Is-acme_coffee-worth-it",
			Title:   "Is @acme_coffee worth following?",
			Snippet: "Saw their reels everywhere.",
		},
	}}

	store := newMemoryInsightStore()
	result := testMiner(store, searcher).Mine(context.Background(), coffeeContext())

	if result.Inserted != 1 {
		t.Fatalf("Inserted = %d, want 1, handle mention must pass the gate", result.Inserted)
	}
}

func TestMine_Idempotent(t *testing.T) {
	searcher := &stubSearcher{results: []search.Result{
		{
			URL:     "https://www.reddit.com/r/coffee/comments/abc/acme/",
			Title:   "Acme Coffee review",
			Snippet: "Acme Coffee is decent.",
		},
	}}

	store := newMemoryInsightStore()
	miner := testMiner(store, searcher)

	first := miner.Mine(context.Background(), coffeeContext())
	if first.Inserted != 1 {
		t.Fatalf("first pass Inserted = %d, want 1", first.Inserted)
	}

	second := miner.Mine(context.Background(), coffeeContext())
	if second.Inserted != 0 {
		t.Errorf("second pass Inserted = %d, want 0", second.Inserted)
	}

	if second.Duplicates == 0 {
		t.Error("second pass recorded no duplicates")
	}

	if store.inserts != 1 {
		t.Errorf("store.inserts = %d, want 1", store.inserts)
	}
}

func TestMine_QueryFailureContinues(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("provider down")}
	store := newMemoryInsightStore()

	result := testMiner(store, searcher).Mine(context.Background(), coffeeContext())

	if len(result.Errors) != len(Queries(coffeeContext())) {
		t.Errorf("Errors = %d, want one per query", len(result.Errors))
	}

	if result.Inserted != 0 {
		t.Errorf("Inserted = %d, want 0", result.Inserted)
	}
}

func TestContent_TruncatesOnRuneBoundaries(t *testing.T) {
	logger := zerolog.Nop()
	miner := NewMiner(Config{MaxContentLen: 10}, newMemoryInsightStore(), &stubSearcher{}, &logger)

	// The cap lands inside the multi-byte "é" run.
	snippet := "caf" + strings.Repeat("é", 10)

	got := miner.content(context.Background(), search.Result{Snippet: snippet})

	if !utf8.ValidString(got) {
		t.Fatalf("content() = %q, not valid UTF-8", got)
	}

	if n := utf8.RuneCountInString(got); n != 10 {
		t.Errorf("content() rune count = %d, want 10", n)
	}

	short := miner.content(context.Background(), search.Result{Snippet: "short"})
	if short != "short" {
		t.Errorf("content() = %q, want unchanged short snippet", short)
	}
}

func TestClassifyCommunitySource(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://old.reddit.com/r/coffee/", "reddit", true},
		{"https://www.quora.com/some-question", "quora", true},
		{"https://coffee.stackexchange.com/questions/1", "stackexchange", true},
		{"https://www.trustpilot.com/review/acme", "trustpilot", true},
		{"https://news.ycombinator.com/item?id=123", "hackernews", true},
		{"https://www.home-barista.com/forum/topic", "forum", true},
		{"https://www.acmecoffee.com/", "", false},
		{"https://instagram.com/acme_coffee", "", false},
	}

	for _, tt := range tests {
		source, ok := classifyCommunitySource(tt.url)
		if ok != tt.wantOK || source != tt.want {
			t.Errorf("classifyCommunitySource(%q) = (%q, %v), want (%q, %v)", tt.url, source, ok, tt.want, tt.wantOK)
		}
	}
}

func TestQueries_Deterministic(t *testing.T) {
	first := Queries(coffeeContext())
	second := Queries(coffeeContext())

	if len(first) != len(second) {
		t.Fatalf("query counts differ: %d vs %d", len(first), len(second))
	}

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("query %d differs: %q vs %q", i, first[i], second[i])
		}
	}

	seen := make(map[string]bool)
	for _, q := range first {
		if seen[q] {
			t.Errorf("duplicate query %q", q)
		}

		seen[q] = true
	}
}
