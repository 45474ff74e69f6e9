// Package storage persists computed distributions and extraction jobs.
// Backends: in-memory (dev/tests), SQLite, Postgres.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tippool/internal/core"
)

// ErrNotFound is returned when no record matches the requested ID.
var ErrNotFound = errors.New("record not found")

// JobStatus is the lifecycle state of an extraction job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// Distribution is a persisted engine result: the computed payouts with
// their bill breakdowns, plus the inputs that produced them.
type Distribution struct {
	ID          uuid.UUID
	Profile     string
	HourlyRate  core.Money
	TotalAmount core.Money
	TotalHours  decimal.Decimal
	Payouts     []core.PartnerPayout
	CreatedAt   time.Time
}

// ExtractionJob tracks one uploaded timesheet image through the
// vision/parse pipeline. LastError holds the collaborator failure
// message when Status is failed.
type ExtractionJob struct {
	ID        uuid.UUID
	Status    JobStatus
	Image     []byte
	ImageType string
	Text      string
	Roster    []core.PartnerHours
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the persistence port shared by all backends.
type Store interface {
	SaveDistribution(ctx context.Context, d *Distribution) error
	GetDistribution(ctx context.Context, id uuid.UUID) (*Distribution, error)
	ListDistributions(ctx context.Context, limit int) ([]*Distribution, error)

	CreateExtractionJob(ctx context.Context, job *ExtractionJob) error
	GetExtractionJob(ctx context.Context, id uuid.UUID) (*ExtractionJob, error)
	UpdateExtractionJob(ctx context.Context, job *ExtractionJob) error
	// PendingExtractionJobs lists job IDs still waiting for a worker,
	// oldest first. The periodic sweep uses this as backup for lost
	// queue messages.
	PendingExtractionJobs(ctx context.Context, limit int) ([]uuid.UUID, error)
	// PruneExtractionJobs deletes done and failed jobs last touched
	// before cutoff, returning how many were removed.
	PruneExtractionJobs(ctx context.Context, cutoff time.Time) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
