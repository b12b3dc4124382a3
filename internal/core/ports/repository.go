// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture
// pattern: the orchestration engine receives its store explicitly instead of
// reaching for a shared client, so tests can inject doubles.
package ports

import (
	"context"

	"github.com/brandscout/brandscout/internal/core/domain"
	db "github.com/brandscout/brandscout/internal/storage"
)

// JobStore loads and updates research jobs.
type JobStore interface {
	GetJob(ctx context.Context, jobID string) (*domain.ResearchJob, error)
	UpdateJobStatus(ctx context.Context, jobID, status string) error
}

// JobQueue claims pending jobs for background workers. A nil job with a
// nil error means the queue is empty.
type JobQueue interface {
	ClaimNextPendingJob(ctx context.Context) (*domain.ResearchJob, error)
	CountPendingJobs(ctx context.Context) (int, error)
}

// CompetitorStore persists and counts discovered competitors.
type CompetitorStore interface {
	SaveCompetitors(ctx context.Context, jobID string, candidates []domain.CandidateCompetitor) (int, error)
	ListCompetitors(ctx context.Context, jobID string) ([]domain.CandidateCompetitor, error)
	CountCompetitors(ctx context.Context, jobID string) (int, error)
}

// AnalysisStore holds the one-answer-per-question records.
type AnalysisStore interface {
	GetAnalysisAnswer(ctx context.Context, jobID, questionType string) (*domain.AnalysisRecord, error)
	UpsertAnalysisAnswer(ctx context.Context, rec *domain.AnalysisRecord) error
	CountAnsweredQuestions(ctx context.Context, jobID string) (int, error)
	ListAnalysisAnswers(ctx context.Context, jobID string) ([]domain.AnalysisRecord, error)
}

// InsightStore persists community insights with (job, url) identity.
type InsightStore interface {
	InsertCommunityInsight(ctx context.Context, insight *domain.CommunityInsight) (bool, error)
	CountCommunityInsights(ctx context.Context, jobID string) (int, error)
}

// SearchResultStore persists raw web-context search results.
type SearchResultStore interface {
	SaveSearchResults(ctx context.Context, results []db.RawSearchResult) (int, error)
	CountSearchResults(ctx context.Context, jobID string) (int, error)
	WebSummary(ctx context.Context, jobID string, maxChars int) (string, error)
}

// ProfileStore persists scraped social-profile snapshots.
type ProfileStore interface {
	SaveProfileSnapshot(ctx context.Context, snap *db.ProfileSnapshot) error
	CountProfileSnapshots(ctx context.Context, jobID string) (int, error)
}

// TrendStore persists trend snapshots.
type TrendStore interface {
	SaveTrendSnapshot(ctx context.Context, snap *db.TrendSnapshot) error
	CountTrendSnapshots(ctx context.Context, jobID string) (int, error)
}

// Store is the full persistence surface the orchestrator depends on.
type Store interface {
	JobStore
	CompetitorStore
	AnalysisStore
	InsightStore
	SearchResultStore
	ProfileStore
	TrendStore
}
