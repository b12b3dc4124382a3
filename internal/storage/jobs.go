package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brandscout/brandscout/internal/core/domain"
)

// ErrJobNotFound is returned when the requested research job does not exist.
// It is the one storage error the orchestrator treats as fatal.
var ErrJobNotFound = errors.New("research job not found")

// GetJob loads a research job by ID.
func (db *DB) GetJob(ctx context.Context, jobID string) (*domain.ResearchJob, error) {
	var (
		job        domain.ResearchJob
		id         pgtype.UUID
		bio        pgtype.Text
		website    pgtype.Text
		handlesRaw []byte
	)

	err := db.Pool.QueryRow(ctx, `
		SELECT id, brand_name, handle, bio, niche, website, handles, status, created_at, updated_at
		FROM research_jobs
		WHERE id = $1
	`, toUUID(jobID)).Scan(&id, &job.BrandName, &job.Handle, &bio, &job.Niche, &website, &handlesRaw, &job.Status, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	job.ID = jobID
	job.Bio = bio.String
	job.Website = website.String

	if len(handlesRaw) > 0 {
		if err := json.Unmarshal(handlesRaw, &job.Handles); err != nil {
			db.Logger.Warn().Err(err).Str("job_id", jobID).Msg("malformed handles json, ignoring")
		}
	}

	return &job, nil
}

// CreateJob inserts a new pending research job and returns its ID.
func (db *DB) CreateJob(ctx context.Context, job *domain.ResearchJob) (string, error) {
	handles, err := json.Marshal(job.Handles)
	if err != nil {
		return "", fmt.Errorf("marshal handles: %w", err)
	}

	var id pgtype.UUID

	err = db.Pool.QueryRow(ctx, `
		INSERT INTO research_jobs (brand_name, handle, bio, niche, website, handles, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, job.BrandName, job.Handle, toText(job.Bio), job.Niche, toText(job.Website), handles, domain.JobStatusPending).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	return fromUUID(id), nil
}

// ClaimNextPendingJob atomically claims the oldest pending job for
// processing. Returns nil when no job is pending.
func (db *DB) ClaimNextPendingJob(ctx context.Context) (*domain.ResearchJob, error) {
	var id pgtype.UUID

	err := db.Pool.QueryRow(ctx, `
		WITH picked AS (
			SELECT id
			FROM research_jobs
			WHERE status = $1
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE research_jobs j
		SET status = $2, updated_at = now()
		FROM picked
		WHERE j.id = picked.id
		RETURNING j.id
	`, domain.JobStatusPending, domain.JobStatusProcessing).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("claim next pending job: %w", err)
	}

	return db.GetJob(ctx, fromUUID(id))
}

// UpdateJobStatus sets the job status.
func (db *DB) UpdateJobStatus(ctx context.Context, jobID, status string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE research_jobs
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, toUUID(jobID), status)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}

	return nil
}

// CountPendingJobs returns the number of jobs waiting to be claimed.
func (db *DB) CountPendingJobs(ctx context.Context) (int, error) {
	var count int

	err := db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM research_jobs WHERE status = $1
	`, domain.JobStatusPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending jobs: %w", err)
	}

	return count, nil
}
