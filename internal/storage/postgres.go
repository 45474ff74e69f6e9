package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	_ "github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(url string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunPostgresMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveDistribution(ctx context.Context, d *Distribution) error {
	payouts, err := json.Marshal(d.Payouts)
	if err != nil {
		return fmt.Errorf("marshal payouts: %w", err)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO distributions (id, profile, hourly_rate_cents, total_amount_cents, total_hours, payouts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID.String(), d.Profile, d.HourlyRate.Cents, d.TotalAmount.Cents,
		d.TotalHours.String(), payouts, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert distribution: %w", err)
	}

	slog.InfoContext(ctx, "Distribution saved",
		"distribution_id", d.ID,
		"profile", d.Profile,
		"amount_cents", d.TotalAmount.Cents,
		"partner_count", len(d.Payouts))

	return nil
}

func (s *PostgresStore) GetDistribution(ctx context.Context, id uuid.UUID) (*Distribution, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, profile, hourly_rate_cents, total_amount_cents, total_hours, payouts, created_at
		FROM distributions WHERE id = $1`, id.String())
	return scanDistribution(row)
}

func (s *PostgresStore) ListDistributions(ctx context.Context, limit int) ([]*Distribution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile, hourly_rate_cents, total_amount_cents, total_hours, payouts, created_at
		FROM distributions ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list distributions: %w", err)
	}
	defer rows.Close()

	var out []*Distribution
	for rows.Next() {
		d, err := scanDistribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateExtractionJob(ctx context.Context, job *ExtractionJob) error {
	roster, err := json.Marshal(job.Roster)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = JobPending
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extraction_jobs (id, status, image, image_type, extracted_text, roster, attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID.String(), string(job.Status), job.Image, job.ImageType,
		job.Text, roster, job.Attempts, job.LastError, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert extraction job: %w", err)
	}

	slog.InfoContext(ctx, "Extraction job created",
		"job_id", job.ID,
		"image_bytes", len(job.Image))

	return nil
}

func (s *PostgresStore) GetExtractionJob(ctx context.Context, id uuid.UUID) (*ExtractionJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, image, image_type, extracted_text, roster, attempts, last_error, created_at, updated_at
		FROM extraction_jobs WHERE id = $1`, id.String())
	return scanExtractionJob(row)
}

func (s *PostgresStore) UpdateExtractionJob(ctx context.Context, job *ExtractionJob) error {
	roster, err := json.Marshal(job.Roster)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	job.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE extraction_jobs
		SET status = $1, extracted_text = $2, roster = $3, attempts = $4, last_error = $5, updated_at = $6
		WHERE id = $7`,
		string(job.Status), job.Text, roster, job.Attempts,
		job.LastError, job.UpdatedAt, job.ID.String())
	if err != nil {
		return fmt.Errorf("update extraction job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) PendingExtractionJobs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM extraction_jobs WHERE status = $1 ORDER BY created_at LIMIT $2`,
		string(JobPending), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan job id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse job id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) PruneExtractionJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM extraction_jobs
		WHERE status IN ($1, $2) AND updated_at < $3`,
		string(JobDone), string(JobFailed), cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune extraction jobs: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
