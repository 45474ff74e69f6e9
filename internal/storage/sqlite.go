package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tippool/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveDistribution(ctx context.Context, d *Distribution) error {
	payouts, err := json.Marshal(d.Payouts)
	if err != nil {
		return fmt.Errorf("marshal payouts: %w", err)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO distributions (id, profile, hourly_rate_cents, total_amount_cents, total_hours, payouts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.Profile, d.HourlyRate.Cents, d.TotalAmount.Cents,
		d.TotalHours.String(), string(payouts), d.CreatedAt)
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

func (s *SQLiteStore) GetDistribution(ctx context.Context, id uuid.UUID) (*Distribution, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, profile, hourly_rate_cents, total_amount_cents, total_hours, payouts, created_at
		FROM distributions WHERE id = ?`, id.String())
	return scanDistribution(row)
}

func (s *SQLiteStore) ListDistributions(ctx context.Context, limit int) ([]*Distribution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile, hourly_rate_cents, total_amount_cents, total_hours, payouts, created_at
		FROM distributions ORDER BY created_at DESC, id LIMIT ?`, limit)
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

func (s *SQLiteStore) CreateExtractionJob(ctx context.Context, job *ExtractionJob) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID.String(), string(job.Status), job.Image, job.ImageType,
		job.Text, string(roster), job.Attempts, job.LastError, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert extraction job: %w", err)
	}

	slog.InfoContext(ctx, "Extraction job created",
		"job_id", job.ID,
		"image_bytes", len(job.Image))

	return nil
}

func (s *SQLiteStore) GetExtractionJob(ctx context.Context, id uuid.UUID) (*ExtractionJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, image, image_type, extracted_text, roster, attempts, last_error, created_at, updated_at
		FROM extraction_jobs WHERE id = ?`, id.String())
	return scanExtractionJob(row)
}

func (s *SQLiteStore) UpdateExtractionJob(ctx context.Context, job *ExtractionJob) error {
	roster, err := json.Marshal(job.Roster)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	job.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE extraction_jobs
		SET status = ?, extracted_text = ?, roster = ?, attempts = ?, last_error = ?, updated_at = ?
		WHERE id = ?`,
		string(job.Status), job.Text, string(roster), job.Attempts,
		job.LastError, job.UpdatedAt, job.ID.String())
	if err != nil {
		return fmt.Errorf("update extraction job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) PendingExtractionJobs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM extraction_jobs WHERE status = ? ORDER BY created_at LIMIT ?`,
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

func (s *SQLiteStore) PruneExtractionJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM extraction_jobs
		WHERE status IN (?, ?) AND updated_at < ?`,
		string(JobDone), string(JobFailed), cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune extraction jobs: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDistribution(row rowScanner) (*Distribution, error) {
	var (
		d          Distribution
		rawID      string
		rateCents  int64
		totalCents int64
		hours      string
		payouts    []byte
	)
	err := row.Scan(&rawID, &d.Profile, &rateCents, &totalCents, &hours, &payouts, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan distribution: %w", err)
	}

	if d.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse distribution id %q: %w", rawID, err)
	}
	d.HourlyRate = core.Money{Cents: rateCents}
	d.TotalAmount = core.Money{Cents: totalCents}
	if d.TotalHours, err = decimal.NewFromString(hours); err != nil {
		return nil, fmt.Errorf("parse total hours %q: %w", hours, err)
	}
	if err := json.Unmarshal(payouts, &d.Payouts); err != nil {
		return nil, fmt.Errorf("unmarshal payouts: %w", err)
	}
	return &d, nil
}

func scanExtractionJob(row rowScanner) (*ExtractionJob, error) {
	var (
		job    ExtractionJob
		rawID  string
		status string
		roster []byte
	)
	err := row.Scan(&rawID, &status, &job.Image, &job.ImageType, &job.Text,
		&roster, &job.Attempts, &job.LastError, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan extraction job: %w", err)
	}

	if job.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse job id %q: %w", rawID, err)
	}
	job.Status = JobStatus(status)
	if len(roster) > 0 {
		if err := json.Unmarshal(roster, &job.Roster); err != nil {
			return nil, fmt.Errorf("unmarshal roster: %w", err)
		}
	}
	return &job, nil
}
