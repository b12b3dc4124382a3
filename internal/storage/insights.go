package db

import (
	"context"
	"fmt"

	"github.com/brandscout/brandscout/internal/core/domain"
)

// InsertCommunityInsight persists a community insight if none exists for
// (job_id, url). Returns true when a row was actually inserted; a second
// insight at the same URL for the same job is a no-op.
func (db *DB) InsertCommunityInsight(ctx context.Context, insight *domain.CommunityInsight) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO community_insights (job_id, source, url, title, content, sentiment, metric, metric_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (job_id, url) DO NOTHING
	`, toUUID(insight.JobID), insight.Source, insight.URL, toText(insight.Title), toText(insight.Content), insight.Sentiment, toText(insight.Metric), insight.MetricValue)
	if err != nil {
		return false, fmt.Errorf("insert community insight: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// HasCommunityInsight reports whether an insight already exists for the URL.
func (db *DB) HasCommunityInsight(ctx context.Context, jobID, url string) (bool, error) {
	var exists bool

	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM community_insights WHERE job_id = $1 AND url = $2)
	`, toUUID(jobID), url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has community insight: %w", err)
	}

	return exists, nil
}

// CountCommunityInsights returns the number of stored insights for a job.
func (db *DB) CountCommunityInsights(ctx context.Context, jobID string) (int, error) {
	var count int

	err := db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM community_insights WHERE job_id = $1
	`, toUUID(jobID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count community insights: %w", err)
	}

	return count, nil
}
