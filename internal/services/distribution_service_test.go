package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tippool/internal/core"
	"tippool/internal/events"
	"tippool/internal/profiles"
	"tippool/internal/storage"
)

// capturingPublisher records events instead of writing to Kafka.
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.DistributionComputed
	err    error
}

func (p *capturingPublisher) PublishDistributionComputed(ctx context.Context, e events.DistributionComputed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func threeEqualPartners() core.DistributionInput {
	return core.DistributionInput{
		TotalAmount: core.Money{Cents: 10000},
		Partners: []core.PartnerHours{
			{Name: "A", Hours: decimal.RequireFromString("10")},
			{Name: "B", Hours: decimal.RequireFromString("10")},
			{Name: "C", Hours: decimal.RequireFromString("10")},
		},
	}
}

func TestDistributionServiceCreate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &capturingPublisher{}
	svc := NewDistributionService(store, pub, profiles.Default(), "usd")

	dist, err := svc.Create(ctx, threeEqualPartners(), "")
	require.NoError(t, err)
	assert.Equal(t, "usd", dist.Profile)
	assert.Equal(t, int64(333), dist.HourlyRate.Cents)

	var sum int64
	for _, p := range dist.Payouts {
		require.NotEmpty(t, p.BillBreakdown, "payout %s should have a breakdown", p.Name)
		var bd int64
		for _, e := range p.BillBreakdown {
			bd += e.Denomination.Cents * e.Quantity
		}
		assert.Equal(t, p.Payout.Cents, bd, "breakdown must sum to payout for %s", p.Name)
		sum += p.Payout.Cents
	}
	assert.Equal(t, int64(10000), sum)

	// Persisted and readable back
	got, err := svc.Get(ctx, dist.ID)
	require.NoError(t, err)
	assert.Equal(t, dist.ID, got.ID)

	// Event published
	require.Len(t, pub.events, 1)
	assert.Equal(t, dist.ID, pub.events[0].ID)
	assert.Equal(t, 3, pub.events[0].PartnerCount)
}

func TestDistributionServicePreviewDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewDistributionService(store, nil, profiles.Default(), "usd")

	data, profile, err := svc.Preview(ctx, threeEqualPartners(), "")
	require.NoError(t, err)
	assert.Equal(t, "usd", profile)
	assert.Equal(t, int64(3334), data.PartnerPayouts[0].Payout.Cents)

	list, err := svc.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, list, "preview must not persist")
}

func TestDistributionServiceUnknownProfile(t *testing.T) {
	svc := NewDistributionService(storage.NewMemoryStore(), nil, profiles.Default(), "usd")

	_, _, err := svc.Preview(context.Background(), threeEqualPartners(), "euro")
	assert.True(t, errors.Is(err, ErrUnknownProfile))
}

func TestDistributionServiceInvalidInput(t *testing.T) {
	svc := NewDistributionService(storage.NewMemoryStore(), nil, profiles.Default(), "usd")

	_, err := svc.Create(context.Background(), core.DistributionInput{}, "")
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestDistributionServicePublishFailureDoesNotFailCreate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &capturingPublisher{err: errors.New("broker down")}
	svc := NewDistributionService(store, pub, profiles.Default(), "usd")

	dist, err := svc.Create(ctx, threeEqualPartners(), "")
	require.NoError(t, err, "a broker outage must not fail the request")

	got, err := svc.Get(ctx, dist.ID)
	require.NoError(t, err)
	assert.Equal(t, dist.ID, got.ID)
}

func TestDistributionServiceSummary(t *testing.T) {
	ctx := context.Background()
	svc := NewDistributionService(storage.NewMemoryStore(), nil, profiles.Default(), "usd")

	dist, err := svc.Create(ctx, threeEqualPartners(), "")
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, dist.ID)
	require.NoError(t, err)
	require.NotEmpty(t, summary)

	var total int64
	for _, e := range summary {
		total += e.Denomination.Cents * e.Quantity
	}
	assert.Equal(t, int64(10000), total, "summary must cover the whole pool")

	_, err = svc.Summary(ctx, uuid.New())
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
