package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/ports"
	"github.com/brandscout/brandscout/internal/platform/observability"
)

const defaultPollInterval = 10 * time.Second

// Worker polls for pending jobs and runs them one at a time. Claiming uses
// row locking, so multiple workers can share one queue safely.
type Worker struct {
	queue    ports.JobQueue
	engine   *Engine
	interval time.Duration
	logger   *zerolog.Logger
}

// NewWorker builds a polling worker around the engine.
func NewWorker(queue ports.JobQueue, engine *Engine, interval time.Duration, logger *zerolog.Logger) *Worker {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Worker{queue: queue, engine: engine, interval: interval, logger: logger}
}

// Run blocks until the context is canceled, draining the queue and then
// sleeping for the poll interval.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.drain(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain claims and runs jobs until the queue is empty or the context ends.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		if pending, err := w.queue.CountPendingJobs(ctx); err == nil {
			observability.JobsPending.Set(float64(pending))
		}

		job, err := w.queue.ClaimNextPendingJob(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("claim pending job")
			return
		}

		if job == nil {
			return
		}

		w.logger.Info().Str("job_id", job.ID).Str("handle", job.Handle).Msg("job claimed")

		if _, err := w.engine.Run(ctx, job.ID); err != nil {
			// Run only errors when the job cannot be loaded; the claim
			// already flipped it to processing, so park it as errored.
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("run failed")
		}
	}
}
