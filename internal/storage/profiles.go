package db

import (
	"context"
	"fmt"
)

// ProfileSnapshot is a scraped social profile for one (job, platform,
// handle). Payload keeps the tool's raw JSON for downstream consumers.
type ProfileSnapshot struct {
	JobID          string
	Platform       string
	Handle         string
	FullName       string
	Bio            string
	FollowerCount  int64
	FollowingCount int64
	PostCount      int64
	IsVerified     bool
	Payload        []byte
}

// SaveProfileSnapshot upserts the snapshot for (job_id, platform, handle).
// Reruns overwrite with the fresher scrape.
func (db *DB) SaveProfileSnapshot(ctx context.Context, snap *ProfileSnapshot) error {
	payload := snap.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO profile_snapshots
			(job_id, platform, handle, full_name, bio, follower_count, following_count, post_count, is_verified, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (job_id, platform, handle) DO UPDATE
		SET full_name = EXCLUDED.full_name,
			bio = EXCLUDED.bio,
			follower_count = EXCLUDED.follower_count,
			following_count = EXCLUDED.following_count,
			post_count = EXCLUDED.post_count,
			is_verified = EXCLUDED.is_verified,
			payload = EXCLUDED.payload,
			created_at = now()
	`, toUUID(snap.JobID), snap.Platform, snap.Handle,
		toText(snap.FullName), toText(snap.Bio),
		snap.FollowerCount, snap.FollowingCount, snap.PostCount, snap.IsVerified, payload)
	if err != nil {
		return fmt.Errorf("save profile snapshot: %w", err)
	}

	return nil
}

// CountProfileSnapshots returns the number of stored snapshots for a job.
func (db *DB) CountProfileSnapshots(ctx context.Context, jobID string) (int, error) {
	var count int

	err := db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM profile_snapshots WHERE job_id = $1
	`, toUUID(jobID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count profile snapshots: %w", err)
	}

	return count, nil
}
