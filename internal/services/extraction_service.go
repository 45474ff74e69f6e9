package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tippool/internal/extract"
	"tippool/internal/storage"
	"tippool/internal/vision"
)

// ErrRetryLater signals a transient collaborator failure: the job is
// back in pending and the message should requeue.
var ErrRetryLater = errors.New("extraction failed, job requeued")

// ExtractionService runs one uploaded timesheet through the vision
// collaborator and the roster parser, recording the outcome on the job.
type ExtractionService struct {
	store      storage.Store
	extractor  vision.TextExtractor
	maxRetries int
}

func NewExtractionService(store storage.Store, extractor vision.TextExtractor, maxRetries int) *ExtractionService {
	return &ExtractionService{
		store:      store,
		extractor:  extractor,
		maxRetries: maxRetries,
	}
}

// CreateJob stores the uploaded image as a pending job.
func (s *ExtractionService) CreateJob(ctx context.Context, image []byte, imageType string) (*storage.ExtractionJob, error) {
	job := &storage.ExtractionJob{
		ID:        uuid.New(),
		Status:    storage.JobPending,
		Image:     image,
		ImageType: imageType,
	}
	if err := s.store.CreateExtractionJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create extraction job: %w", err)
	}
	return job, nil
}

// GetJob fetches a job by ID.
func (s *ExtractionService) GetJob(ctx context.Context, id uuid.UUID) (*storage.ExtractionJob, error) {
	return s.store.GetExtractionJob(ctx, id)
}

// Process drives one job through extraction and parsing. Vision
// failures are retried up to maxRetries via requeue; a text that
// parses to no roster fails the job immediately, since retrying the
// same image cannot change the outcome.
func (s *ExtractionService) Process(ctx context.Context, id uuid.UUID) error {
	job, err := s.store.GetExtractionJob(ctx, id)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}

	switch job.Status {
	case storage.JobDone, storage.JobFailed:
		// Duplicate delivery or sweep overlap; nothing to do.
		slog.InfoContext(ctx, "Skipping already finished job",
			"job_id", job.ID, "status", string(job.Status))
		return nil
	}

	job.Status = storage.JobProcessing
	job.Attempts++
	if err := s.store.UpdateExtractionJob(ctx, job); err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}

	text, err := s.extractor.ExtractText(ctx, job.Image)
	if err != nil {
		return s.recordFailure(ctx, job, fmt.Errorf("extract text: %w", err), true)
	}
	job.Text = text

	roster, err := extract.ParseRoster(text)
	if err != nil {
		return s.recordFailure(ctx, job, err, false)
	}

	job.Roster = roster
	job.Status = storage.JobDone
	job.LastError = ""
	if err := s.store.UpdateExtractionJob(ctx, job); err != nil {
		return fmt.Errorf("mark job done: %w", err)
	}

	slog.InfoContext(ctx, "Extraction job completed",
		"job_id", job.ID,
		"partner_count", len(roster),
		"attempts", job.Attempts)

	return nil
}

// recordFailure stores the collaborator error on the job. Retryable
// failures go back to pending until the attempt budget runs out.
func (s *ExtractionService) recordFailure(ctx context.Context, job *storage.ExtractionJob, cause error, retryable bool) error {
	job.LastError = cause.Error()

	if retryable && job.Attempts <= s.maxRetries {
		job.Status = storage.JobPending
		if err := s.store.UpdateExtractionJob(ctx, job); err != nil {
			return fmt.Errorf("requeue job: %w", err)
		}
		slog.WarnContext(ctx, "Extraction failed, will retry",
			"job_id", job.ID,
			"attempts", job.Attempts,
			"error", cause)
		return fmt.Errorf("%w: %s", ErrRetryLater, cause)
	}

	job.Status = storage.JobFailed
	if err := s.store.UpdateExtractionJob(ctx, job); err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	slog.ErrorContext(ctx, "Extraction job failed",
		"job_id", job.ID,
		"attempts", job.Attempts,
		"error", cause)
	return nil
}
