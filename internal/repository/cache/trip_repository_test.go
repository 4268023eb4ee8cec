package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
	"github.com/gocomet/taxi-fare/internal/repository/memory"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

// countingRepo counts FindByID calls reaching the wrapped repository
type countingRepo struct {
	trip.Repository
	finds int
}

func (c *countingRepo) FindByID(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	c.finds++
	return c.Repository.FindByID(ctx, id)
}

type failingSaveRepo struct {
	trip.Repository
}

func (failingSaveRepo) Save(context.Context, *trip.Trip) (*trip.Trip, error) {
	return nil, errors.New("write failed")
}

func setup(t *testing.T) (*TripRepository, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingRepo{Repository: memory.NewTripRepository()}
	return NewTripRepository(inner, rdb, time.Minute, logger.Nop()), inner, mr
}

func newTrip() *trip.Trip {
	return trip.New(trip.Features{DistanceKM: 10, DurationMin: 15, OriginZone: trip.Some("Centro")},
		trip.MustPrice("25.00"), time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
}

// TestFindByID_ServedFromCacheAfterSave tests that Save primes the cache
func TestFindByID_ServedFromCacheAfterSave(t *testing.T) {
	repo, inner, mr := setup(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newTrip())
	require.NoError(t, err)
	assert.True(t, mr.Exists(tripKey(saved.ID)))

	got, err := repo.FindByID(ctx, saved.ID)

	require.NoError(t, err)
	assert.Equal(t, 0, inner.finds, "cache hit must not reach the repository")
	assert.Equal(t, saved, got)
	assert.Equal(t, time.Minute, mr.TTL(tripKey(saved.ID)))
}

// TestFindByID_MissPopulatesCache tests read-through on a cold cache
func TestFindByID_MissPopulatesCache(t *testing.T) {
	repo, inner, mr := setup(t)
	ctx := context.Background()
	saved, err := inner.Save(ctx, newTrip())
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.finds)
	assert.True(t, mr.Exists(tripKey(saved.ID)))
}

// TestSave_RefreshesEntry tests that a transition is visible through the cache
func TestSave_RefreshesEntry(t *testing.T) {
	repo, _, _ := setup(t)
	ctx := context.Background()
	saved, err := repo.Save(ctx, newTrip())
	require.NoError(t, err)

	require.NoError(t, saved.Accept())
	_, err = repo.Save(ctx, saved)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.StatusAccepted, got.Status)
}

// TestSave_FailureEvicts tests that a failed update never leaves a stale entry
func TestSave_FailureEvicts(t *testing.T) {
	repo, _, mr := setup(t)
	ctx := context.Background()
	saved, err := repo.Save(ctx, newTrip())
	require.NoError(t, err)

	repo.next = failingSaveRepo{repo.next}
	_, err = repo.Save(ctx, saved)

	assert.Error(t, err)
	assert.False(t, mr.Exists(tripKey(saved.ID)))
}

// TestFindByID_NotFound tests that misses are not cached
func TestFindByID_NotFound(t *testing.T) {
	repo, _, mr := setup(t)
	id := uuid.New()

	_, err := repo.FindByID(context.Background(), id)

	assert.ErrorIs(t, err, trip.ErrTripNotFound)
	assert.False(t, mr.Exists(tripKey(id)))
}

// TestFindByID_CorruptEntry tests that an unreadable entry is replaced
func TestFindByID_CorruptEntry(t *testing.T) {
	repo, inner, mr := setup(t)
	ctx := context.Background()
	saved, err := inner.Save(ctx, newTrip())
	require.NoError(t, err)
	require.NoError(t, mr.Set(tripKey(saved.ID), "{not json"))

	got, err := repo.FindByID(ctx, saved.ID)

	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, 1, inner.finds)
}

// TestRedisDown_FallsBackToRepository tests behaviour during a Redis outage
func TestRedisDown_FallsBackToRepository(t *testing.T) {
	repo, inner, mr := setup(t)
	ctx := context.Background()
	mr.Close()

	saved, err := repo.Save(ctx, newTrip())
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, 1, inner.finds)

	page, err := repo.FindAll(ctx, trip.NewPageRequest(0, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalItems)
}
