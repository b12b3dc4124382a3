package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brandscout/brandscout/internal/core/domain"
)

// GetAnalysisAnswer looks up the stored answer for (jobID, questionType).
// Returns nil when no record exists.
func (db *DB) GetAnalysisAnswer(ctx context.Context, jobID, questionType string) (*domain.AnalysisRecord, error) {
	var (
		rec        domain.AnalysisRecord
		answeredAt pgtype.Timestamptz
	)

	err := db.Pool.QueryRow(ctx, `
		SELECT question, answer, tokens_used, duration_ms, is_answered, answered_at
		FROM analysis_answers
		WHERE job_id = $1 AND question_type = $2
	`, toUUID(jobID), questionType).Scan(&rec.Question, &rec.Answer, &rec.TokensUsed, &rec.DurationMs, &rec.IsAnswered, &answeredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("get analysis answer: %w", err)
	}

	rec.JobID = jobID
	rec.QuestionType = questionType

	if answeredAt.Valid {
		rec.AnsweredAt = answeredAt.Time
	}

	return &rec, nil
}

// UpsertAnalysisAnswer writes the answer for (jobID, questionType),
// overwriting any existing row for the same key. Concurrent writers for the
// same key are safe: the last upsert wins and no duplicate row is created.
func (db *DB) UpsertAnalysisAnswer(ctx context.Context, rec *domain.AnalysisRecord) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO analysis_answers (job_id, question_type, question, answer, tokens_used, duration_ms, is_answered, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (job_id, question_type) DO UPDATE
		SET question = EXCLUDED.question,
			answer = EXCLUDED.answer,
			tokens_used = EXCLUDED.tokens_used,
			duration_ms = EXCLUDED.duration_ms,
			is_answered = EXCLUDED.is_answered,
			answered_at = EXCLUDED.answered_at,
			updated_at = now()
	`, toUUID(rec.JobID), rec.QuestionType, rec.Question, rec.Answer, rec.TokensUsed, rec.DurationMs, rec.IsAnswered, toTimestamptz(rec.AnsweredAt))
	if err != nil {
		return fmt.Errorf("upsert analysis answer: %w", err)
	}

	return nil
}

// CountAnsweredQuestions returns how many question types have an answered
// record for the job.
func (db *DB) CountAnsweredQuestions(ctx context.Context, jobID string) (int, error) {
	var count int

	err := db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM analysis_answers WHERE job_id = $1 AND is_answered
	`, toUUID(jobID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count answered questions: %w", err)
	}

	return count, nil
}

// ListAnalysisAnswers returns all stored answers for a job.
func (db *DB) ListAnalysisAnswers(ctx context.Context, jobID string) ([]domain.AnalysisRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT question_type, question, answer, tokens_used, duration_ms, is_answered, answered_at
		FROM analysis_answers
		WHERE job_id = $1
		ORDER BY question_type
	`, toUUID(jobID))
	if err != nil {
		return nil, fmt.Errorf("list analysis answers: %w", err)
	}
	defer rows.Close()

	var out []domain.AnalysisRecord

	for rows.Next() {
		var (
			rec        domain.AnalysisRecord
			answeredAt pgtype.Timestamptz
		)

		if err := rows.Scan(&rec.QuestionType, &rec.Question, &rec.Answer, &rec.TokensUsed, &rec.DurationMs, &rec.IsAnswered, &answeredAt); err != nil {
			return nil, fmt.Errorf("scan analysis answer: %w", err)
		}

		rec.JobID = jobID

		if answeredAt.Valid {
			rec.AnsweredAt = answeredAt.Time
		}

		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis answers: %w", err)
	}

	return out, nil
}
