package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. Used by the memory
// backend and as the storage double in tests.
type MemoryStore struct {
	mu            sync.RWMutex
	distributions map[uuid.UUID]*Distribution
	jobs          map[uuid.UUID]*ExtractionJob
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		distributions: make(map[uuid.UUID]*Distribution),
		jobs:          make(map[uuid.UUID]*ExtractionJob),
	}
}

func (s *MemoryStore) SaveDistribution(ctx context.Context, d *Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	cp := *d
	cp.Payouts = append(cp.Payouts[:0:0], d.Payouts...)
	s.distributions[d.ID] = &cp
	return nil
}

func (s *MemoryStore) GetDistribution(ctx context.Context, id uuid.UUID) (*Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.distributions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) ListDistributions(ctx context.Context, limit int) ([]*Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Distribution, 0, len(s.distributions))
	for _, d := range s.distributions {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CreateExtractionJob(ctx context.Context, job *ExtractionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = JobPending
	}
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) GetExtractionJob(ctx context.Context, id uuid.UUID) (*ExtractionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) UpdateExtractionJob(ctx context.Context, job *ExtractionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	job.UpdatedAt = time.Now().UTC()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) PendingExtractionJobs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*ExtractionJob
	for _, job := range s.jobs {
		if job.Status == JobPending {
			pending = append(pending, job)
		}
	}
	sort.Slice(pending, func(a, b int) bool {
		return pending[a].CreatedAt.Before(pending[b].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	ids := make([]uuid.UUID, len(pending))
	for i, job := range pending {
		ids[i] = job.ID
	}
	return ids, nil
}

func (s *MemoryStore) PruneExtractionJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned int64
	for id, job := range s.jobs {
		if job.Status != JobDone && job.Status != JobFailed {
			continue
		}
		if job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			pruned++
		}
	}
	return pruned, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
