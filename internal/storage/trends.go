package db

import (
	"context"
	"fmt"
)

// TrendSnapshot is a stored trend lookup for one keyword.
type TrendSnapshot struct {
	JobID   string
	Keyword string
	Region  string
	Points  []byte // raw interest-over-time JSON from the trends tool
}

// SaveTrendSnapshot upserts the snapshot for (job_id, keyword, region).
func (db *DB) SaveTrendSnapshot(ctx context.Context, snap *TrendSnapshot) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO trend_snapshots (job_id, keyword, region, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_id, keyword, region) DO UPDATE
		SET points = EXCLUDED.points, created_at = now()
	`, toUUID(snap.JobID), snap.Keyword, snap.Region, snap.Points)
	if err != nil {
		return fmt.Errorf("save trend snapshot: %w", err)
	}

	return nil
}

// CountTrendSnapshots returns the number of stored snapshots for a job.
func (db *DB) CountTrendSnapshots(ctx context.Context, jobID string) (int, error) {
	var count int

	err := db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM trend_snapshots WHERE job_id = $1
	`, toUUID(jobID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trend snapshots: %w", err)
	}

	return count, nil
}
