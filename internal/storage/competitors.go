package db

import (
	"context"
	"fmt"

	"github.com/brandscout/brandscout/internal/core/domain"
)

// SaveCompetitors persists discovered competitors. Identity is
// (job_id, platform, lowercased handle); the first writer wins and later
// duplicates are dropped by ON CONFLICT. Returns the number of rows
// actually inserted.
func (db *DB) SaveCompetitors(ctx context.Context, jobID string, candidates []domain.CandidateCompetitor) (int, error) {
	inserted := 0

	for _, c := range candidates {
		tag, err := db.Pool.Exec(ctx, `
			INSERT INTO competitors (job_id, handle, platform, discovery_reason, relevance_score, competitor_type, discovery_layer)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (job_id, platform, handle) DO NOTHING
		`, toUUID(jobID), domain.NormalizeHandle(c.Handle), c.Platform, toText(c.DiscoveryReason), c.RelevanceScore, toText(c.CompetitorType), c.Layer.String())
		if err != nil {
			return inserted, fmt.Errorf("save competitor %q: %w", c.Handle, err)
		}

		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// ListCompetitors returns all competitors for a job, highest relevance first.
func (db *DB) ListCompetitors(ctx context.Context, jobID string) ([]domain.CandidateCompetitor, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT handle, platform, coalesce(discovery_reason, ''), relevance_score, coalesce(competitor_type, ''), discovery_layer
		FROM competitors
		WHERE job_id = $1
		ORDER BY relevance_score DESC, created_at
	`, toUUID(jobID))
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	defer rows.Close()

	var out []domain.CandidateCompetitor

	for rows.Next() {
		var (
			c     domain.CandidateCompetitor
			layer string
		)

		if err := rows.Scan(&c.Handle, &c.Platform, &c.DiscoveryReason, &c.RelevanceScore, &c.CompetitorType, &layer); err != nil {
			return nil, fmt.Errorf("scan competitor: %w", err)
		}

		c.Layer = parseLayer(layer)
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate competitors: %w", err)
	}

	return out, nil
}

// CountCompetitors returns the number of stored competitors for a job.
func (db *DB) CountCompetitors(ctx context.Context, jobID string) (int, error) {
	var count int

	err := db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM competitors WHERE job_id = $1
	`, toUUID(jobID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count competitors: %w", err)
	}

	return count, nil
}

func parseLayer(s string) domain.DiscoveryLayer {
	switch s {
	case domain.LayerPlatformSearch.String():
		return domain.LayerPlatformSearch
	case domain.LayerKeywordSearch.String():
		return domain.LayerKeywordSearch
	case domain.LayerSubprocess.String():
		return domain.LayerSubprocess
	case domain.LayerBrowser.String():
		return domain.LayerBrowser
	default:
		return domain.LayerUnknown
	}
}
