// Package domain holds the core value types shared by the research engine.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// ResearchContext is the immutable input to a research run. It is created
// once per job and read-only for every step.
type ResearchContext struct {
	JobID      string
	BrandName  string
	Handle     string // primary social handle, without "@"
	Bio        string
	Niche      string
	Website    string
	Handles    map[string]string // platform -> known handle
	WebSummary string            // prior web-research excerpt, may be empty
}

// DiscoveryLayer identifies which fallback layer produced a candidate.
// It is attached at creation time and never inferred from strings.
type DiscoveryLayer int

const (
	LayerUnknown DiscoveryLayer = iota
	LayerPlatformSearch
	LayerKeywordSearch
	LayerSubprocess
	LayerBrowser
)

// String returns the stable name used in logs and layer-usage records.
func (l DiscoveryLayer) String() string {
	switch l {
	case LayerPlatformSearch:
		return "platform_search"
	case LayerKeywordSearch:
		return "keyword_search"
	case LayerSubprocess:
		return "subprocess"
	case LayerBrowser:
		return "browser"
	default:
		return "unknown"
	}
}

// Competitor type constants.
const (
	CompetitorTypeDirect       = "direct"
	CompetitorTypeIndirect     = "indirect"
	CompetitorTypeAspirational = "aspirational"
)

// CandidateCompetitor is a discovered competitor account.
// Identity is (Platform, lowercased Handle).
type CandidateCompetitor struct {
	Handle          string
	Platform        string
	DiscoveryReason string
	RelevanceScore  float32 // 0-1 heuristic, used for sorting and filtering
	CompetitorType  string
	Layer           DiscoveryLayer
}

// Key returns the dedup identity of the candidate.
func (c CandidateCompetitor) Key() string {
	return c.Platform + "/" + NormalizeHandle(c.Handle)
}

// NormalizeHandle lowercases a handle and strips a leading "@".
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// AnalysisRecord is a stored answer for one research question.
// Exactly one record exists per (JobID, QuestionType).
type AnalysisRecord struct {
	JobID        string
	QuestionType string
	Question     string
	Answer       string
	TokensUsed   int
	DurationMs   int64
	IsAnswered   bool
	AnsweredAt   time.Time
}

// CommunityInsight is one discussion-site mention of the brand.
// Identity is (JobID, URL); a second insight at the same URL is a no-op.
type CommunityInsight struct {
	JobID       string
	Source      string
	URL         string
	Title       string
	Content     string
	Sentiment   string
	Metric      string
	MetricValue float64
}

// Sentiment constants. The miner only ever writes neutral; deeper
// sentiment extraction is a downstream analysis.
const (
	SentimentNeutral  = "neutral"
	SentimentPositive = "positive"
	SentimentNegative = "negative"
)

// ConnectorStatus is the last known status of an external capability.
type ConnectorStatus string

const (
	ConnectorOK       ConnectorStatus = "ok"
	ConnectorDegraded ConnectorStatus = "degraded"
)

// ConnectorSnapshot is the ephemeral health record for one connector.
type ConnectorSnapshot struct {
	Name       string
	Status     ConnectorStatus
	Reason     string
	OccurredAt time.Time
}

// QualityScoreReport is the reliability verdict for one record batch.
type QualityScoreReport struct {
	Source     string
	Score      int
	Issues     []string
	Warnings   []string
	IsReliable bool
}

// StepError records a non-fatal failure of one step or fallback layer.
type StepError struct {
	Step  string
	Layer string
	Err   error
}

// Error implements the error interface.
func (e StepError) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("%s[%s]: %v", e.Step, e.Layer, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

// Unwrap exposes the underlying cause.
func (e StepError) Unwrap() error {
	return e.Err
}

// RunResult is the aggregate outcome of one orchestrator run.
// It is always returned, even when individual steps failed.
type RunResult struct {
	JobID          string
	Competitors    []CandidateCompetitor
	Analysis       []AnalysisRecord
	Errors         []StepError
	LayersUsed     []string
	SkippedSteps   []string // resume markers, e.g. "DISCOVERY_SKIPPED_RESUME"
	QualityReports []QualityScoreReport
	Connectors     []ConnectorSnapshot
	TokensUsed     int
	StartedAt      time.Time
	FinishedAt     time.Time
}

// ResearchJob is a persisted research request.
type ResearchJob struct {
	ID        string
	BrandName string
	Handle    string
	Bio       string
	Niche     string
	Website   string
	Handles   map[string]string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Job status constants.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusDone       = "done"
	JobStatusError      = "error"
)

// Context builds the immutable run input from a persisted job.
func (j *ResearchJob) Context(webSummary string) ResearchContext {
	return ResearchContext{
		JobID:      j.ID,
		BrandName:  j.BrandName,
		Handle:     NormalizeHandle(j.Handle),
		Bio:        j.Bio,
		Niche:      j.Niche,
		Website:    j.Website,
		Handles:    j.Handles,
		WebSummary: webSummary,
	}
}
