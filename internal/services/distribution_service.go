// Package services orchestrates the engine, storage, queues and the
// vision collaborator behind the HTTP and worker entry points.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tippool/internal/core"
	"tippool/internal/events"
	"tippool/internal/profiles"
	"tippool/internal/storage"
)

// ErrUnknownProfile is returned when a request names a denomination
// profile that is not configured.
var ErrUnknownProfile = errors.New("unknown denomination profile")

// DistributionService computes distributions, persists them and
// announces them downstream.
type DistributionService struct {
	store          storage.Store
	publisher      events.Publisher
	registry       *profiles.Registry
	defaultProfile string
}

func NewDistributionService(store storage.Store, publisher events.Publisher, registry *profiles.Registry, defaultProfile string) *DistributionService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &DistributionService{
		store:          store,
		publisher:      publisher,
		registry:       registry,
		defaultProfile: defaultProfile,
	}
}

// Preview runs the engine without persisting anything: compute the
// payouts, then decompose each one against the profile's denomination
// set.
func (s *DistributionService) Preview(ctx context.Context, input core.DistributionInput, profileName string) (core.DistributionData, string, error) {
	if profileName == "" {
		profileName = s.defaultProfile
	}
	set, ok := s.registry.Get(profileName)
	if !ok {
		return core.DistributionData{}, "", fmt.Errorf("%w: %q", ErrUnknownProfile, profileName)
	}

	data, err := core.Compute(input)
	if err != nil {
		return core.DistributionData{}, "", err
	}

	for i := range data.PartnerPayouts {
		breakdown, err := core.Allocate(data.PartnerPayouts[i].Payout, set)
		if err != nil {
			return core.DistributionData{}, "", fmt.Errorf("allocate payout for %q: %w", data.PartnerPayouts[i].Name, err)
		}
		data.PartnerPayouts[i].BillBreakdown = breakdown
	}

	return data, profileName, nil
}

// Create computes, persists and publishes a distribution. A publish
// failure is logged and swallowed: the distribution is already saved
// and the caller should see it.
func (s *DistributionService) Create(ctx context.Context, input core.DistributionInput, profileName string) (*storage.Distribution, error) {
	data, profileName, err := s.Preview(ctx, input, profileName)
	if err != nil {
		return nil, err
	}

	dist := &storage.Distribution{
		ID:          uuid.New(),
		Profile:     profileName,
		HourlyRate:  data.HourlyRate,
		TotalAmount: data.TotalAmount,
		TotalHours:  data.TotalHours,
		Payouts:     data.PartnerPayouts,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.SaveDistribution(ctx, dist); err != nil {
		return nil, fmt.Errorf("save distribution: %w", err)
	}

	if err := s.publisher.PublishDistributionComputed(ctx, events.DistributionComputed{
		ID:               dist.ID,
		Profile:          dist.Profile,
		TotalAmountCents: dist.TotalAmount.Cents,
		PartnerCount:     len(dist.Payouts),
		ComputedAt:       dist.CreatedAt,
	}); err != nil {
		slog.ErrorContext(ctx, "Failed to publish distribution event",
			"distribution_id", dist.ID, "error", err)
	}

	return dist, nil
}

// Get fetches a persisted distribution.
func (s *DistributionService) Get(ctx context.Context, id uuid.UUID) (*storage.Distribution, error) {
	return s.store.GetDistribution(ctx, id)
}

// List returns recent distributions, newest first.
func (s *DistributionService) List(ctx context.Context, limit int) ([]*storage.Distribution, error) {
	return s.store.ListDistributions(ctx, limit)
}

// Summary aggregates one distribution's breakdowns into total bills
// needed across all partners.
func (s *DistributionService) Summary(ctx context.Context, id uuid.UUID) ([]core.BillBreakdownEntry, error) {
	dist, err := s.store.GetDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	return core.TotalBillsNeeded(dist.Payouts), nil
}
