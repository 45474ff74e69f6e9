// Package worker drives extraction jobs from the queue and from
// periodic sweeps of the pending backlog.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tippool/internal/amqp"
	"tippool/internal/log"
	"tippool/internal/services"
	"tippool/internal/storage"
)

// ExtractWorker consumes extraction job messages and also sweeps the
// store for pending jobs whose messages were lost or never published.
type ExtractWorker struct {
	store      storage.Store
	extraction *services.ExtractionService
	logger     *log.Logger
	batchSize  int
	retention  time.Duration
}

// NewExtractWorker builds a worker. A zero retention disables pruning
// of finished jobs.
func NewExtractWorker(store storage.Store, extraction *services.ExtractionService, logger *log.Logger, batchSize int, retention time.Duration) *ExtractWorker {
	return &ExtractWorker{
		store:      store,
		extraction: extraction,
		logger:     logger.WithComponent(log.ComponentWorker),
		batchSize:  batchSize,
		retention:  retention,
	}
}

// HandleJobMessage processes one queued extraction job. Returning an
// error makes the consumer nack-requeue the delivery, so only retryable
// failures propagate.
func (w *ExtractWorker) HandleJobMessage(ctx context.Context, msg *amqp.ExtractionJobMessage) error {
	w.logger.InfoContext(ctx, "processing extraction job", log.FieldJobID, msg.ID.String())

	err := w.extraction.Process(ctx, msg.ID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		// Stale message for a job that no longer exists; drop it.
		w.logger.WarnContext(ctx, "extraction job not found, dropping message", log.FieldJobID, msg.ID.String())
		return nil
	case errors.Is(err, services.ErrRetryLater):
		return err
	default:
		return fmt.Errorf("process extraction job %s: %w", msg.ID, err)
	}
}

// ProcessPendingJobs sweeps the store for pending jobs and runs them.
// It backstops lost queue messages; jobs already being consumed are
// skipped by the service's status check.
func (w *ExtractWorker) ProcessPendingJobs(ctx context.Context) error {
	ids, err := w.store.PendingExtractionJobs(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending extraction jobs: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "sweeping pending extraction jobs", "count", len(ids))

	var failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.extraction.Process(ctx, id); err != nil {
			if errors.Is(err, services.ErrRetryLater) {
				// Stays pending; the next sweep retries it.
				continue
			}
			failed++
			w.logger.ErrorContext(ctx, "pending job sweep failed", log.FieldJobID, id.String(), "error", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("pending job sweep: %d of %d jobs failed", failed, len(ids))
	}
	return nil
}

// StartupCheck runs one sweep so a restarted worker drains jobs that
// accumulated while it was down.
func (w *ExtractWorker) StartupCheck(ctx context.Context) error {
	w.logger.InfoContext(ctx, "running startup backlog check")
	return w.ProcessPendingJobs(ctx)
}

// PruneFinishedJobs deletes done and failed jobs older than the
// configured retention. Image blobs dominate row size, so this keeps
// the jobs table from growing without bound.
func (w *ExtractWorker) PruneFinishedJobs(ctx context.Context) error {
	if w.retention <= 0 {
		return nil
	}

	cutoff := time.Now().UTC().Add(-w.retention)
	pruned, err := w.store.PruneExtractionJobs(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune finished jobs: %w", err)
	}
	if pruned > 0 {
		w.logger.InfoContext(ctx, "pruned finished extraction jobs", "count", pruned)
	}
	return nil
}
