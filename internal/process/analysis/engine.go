package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/domain"
	"github.com/brandscout/brandscout/internal/core/llm"
	"github.com/brandscout/brandscout/internal/core/ports"
	"github.com/brandscout/brandscout/internal/platform/observability"
)

const stepName = "analysis"

// Engine asks the question catalog and persists answers idempotently.
type Engine struct {
	store  ports.AnalysisStore
	client llm.Client
	params llm.Params
	logger *zerolog.Logger
}

// NewEngine wires the analysis engine.
func NewEngine(store ports.AnalysisStore, client llm.Client, params llm.Params, logger *zerolog.Logger) *Engine {
	return &Engine{store: store, client: client, params: params, logger: logger}
}

// Answer is the outcome of one question.
type Answer struct {
	Record          domain.AnalysisRecord
	AlreadyAnswered bool
}

// AskQuestion answers one catalog question for the job. If a stored answer
// already exists it is returned as-is and no generation happens; that is
// what makes reruns safe and cheap.
func (e *Engine) AskQuestion(ctx context.Context, rctx domain.ResearchContext, q Question) (Answer, error) {
	existing, err := e.store.GetAnalysisAnswer(ctx, rctx.JobID, q.Type)
	if err != nil {
		return Answer{}, fmt.Errorf("load stored answer: %w", err)
	}

	if existing != nil && existing.IsAnswered {
		observability.AnalysisAnswersReused.Inc()

		e.logger.Debug().
			Str("job_id", rctx.JobID).
			Str("question", q.Type).
			Msg("reusing stored answer")

		return Answer{Record: *existing, AlreadyAnswered: true}, nil
	}

	start := time.Now()

	res, err := e.client.Generate(ctx, systemPrompt(q), buildUserPrompt(q, rctx), e.params)
	if err != nil {
		return Answer{}, fmt.Errorf("generate %s: %w", q.Type, err)
	}

	rec := domain.AnalysisRecord{
		JobID:        rctx.JobID,
		QuestionType: q.Type,
		Question:     q.Prompt,
		Answer:       res.Text,
		TokensUsed:   res.TokensUsed,
		DurationMs:   time.Since(start).Milliseconds(),
		IsAnswered:   res.Text != "",
		AnsweredAt:   time.Now().UTC(),
	}

	if err := e.store.UpsertAnalysisAnswer(ctx, &rec); err != nil {
		return Answer{}, fmt.Errorf("persist answer %s: %w", q.Type, err)
	}

	return Answer{Record: rec}, nil
}

// Result aggregates one full catalog pass.
type Result struct {
	Answers    []domain.AnalysisRecord
	Errors     []domain.StepError
	TokensUsed int
	Reused     int
}

// AskAllQuestions runs the catalog in order. A failed question is recorded
// and the pass continues; partial results are better than none.
func (e *Engine) AskAllQuestions(ctx context.Context, rctx domain.ResearchContext) Result {
	var result Result

	for _, q := range Catalog() {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: q.Type, Err: ctx.Err()})
			break
		}

		answer, err := e.AskQuestion(ctx, rctx, q)
		if err != nil {
			result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: q.Type, Err: err})

			e.logger.Warn().Err(err).
				Str("job_id", rctx.JobID).
				Str("question", q.Type).
				Msg("question failed")

			continue
		}

		result.Answers = append(result.Answers, answer.Record)

		if answer.AlreadyAnswered {
			result.Reused++
		} else {
			result.TokensUsed += answer.Record.TokensUsed
		}
	}

	e.logger.Info().
		Str("job_id", rctx.JobID).
		Int("answered", len(result.Answers)).
		Int("reused", result.Reused).
		Int("failed", len(result.Errors)).
		Msg("analysis pass done")

	return result
}
