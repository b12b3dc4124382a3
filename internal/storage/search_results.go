package db

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// RawSearchResult is one persisted web-context search hit.
type RawSearchResult struct {
	JobID      string
	Query      string
	Title      string
	URL        string
	Snippet    string
	SourceType string
}

// SaveSearchResults persists raw web-context results, skipping URLs already
// recorded for the job. Returns the number of rows inserted.
func (db *DB) SaveSearchResults(ctx context.Context, results []RawSearchResult) (int, error) {
	inserted := 0

	for _, r := range results {
		tag, err := db.Pool.Exec(ctx, `
			INSERT INTO search_results (job_id, query, title, url, snippet, source_type)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (job_id, url) DO NOTHING
		`, toUUID(r.JobID), r.Query, toText(r.Title), r.URL, toText(r.Snippet), r.SourceType)
		if err != nil {
			return inserted, fmt.Errorf("save search result %q: %w", r.URL, err)
		}

		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// CountSearchResults returns the number of stored raw results for a job.
func (db *DB) CountSearchResults(ctx context.Context, jobID string) (int, error) {
	var count int

	err := db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM search_results WHERE job_id = $1
	`, toUUID(jobID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count search results: %w", err)
	}

	return count, nil
}

// WebSummary builds a short excerpt from the stored web-context snippets,
// used as prior research context for the analysis engine.
func (db *DB) WebSummary(ctx context.Context, jobID string, maxChars int) (string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT coalesce(title, ''), coalesce(snippet, '')
		FROM search_results
		WHERE job_id = $1
		ORDER BY created_at
		LIMIT 20
	`, toUUID(jobID))
	if err != nil {
		return "", fmt.Errorf("web summary: %w", err)
	}
	defer rows.Close()

	var sb strings.Builder

	for rows.Next() {
		var title, snippet string
		if err := rows.Scan(&title, &snippet); err != nil {
			return "", fmt.Errorf("scan web summary row: %w", err)
		}

		if sb.Len() >= maxChars {
			break
		}

		if title != "" {
			sb.WriteString(title)
			sb.WriteString(": ")
		}

		sb.WriteString(snippet)
		sb.WriteString("\n")
	}

	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate web summary rows: %w", err)
	}

	out := sb.String()
	if utf8.RuneCountInString(out) > maxChars {
		out = string([]rune(out)[:maxChars])
	}

	return out, nil
}
