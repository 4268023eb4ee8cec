package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
)

func newTrip() *trip.Trip {
	return trip.New(trip.Features{DistanceKM: 10, DurationMin: 15}, trip.MustPrice("25.00"), time.Now())
}

// TestSave_AssignsIDAndCreatedAt tests insert semantics
func TestSave_AssignsIDAndCreatedAt(t *testing.T) {
	repo := NewTripRepository()
	input := newTrip()

	saved, err := repo.Save(context.Background(), input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.Equal(t, uuid.Nil, input.ID, "input must not be mutated")
}

// TestSave_NeverOverwritesCreatedAt tests update semantics
func TestSave_NeverOverwritesCreatedAt(t *testing.T) {
	repo := NewTripRepository()
	saved, err := repo.Save(context.Background(), newTrip())
	require.NoError(t, err)
	created := saved.CreatedAt

	require.NoError(t, saved.Accept())
	saved.CreatedAt = created.Add(time.Hour)
	updated, err := repo.Save(context.Background(), saved)
	require.NoError(t, err)

	assert.Equal(t, trip.StatusAccepted, updated.Status)
	assert.True(t, updated.CreatedAt.Equal(created))
}

// TestFindByID tests lookups and copy isolation
func TestFindByID(t *testing.T) {
	repo := NewTripRepository()
	saved, err := repo.Save(context.Background(), newTrip())
	require.NoError(t, err)

	got, err := repo.FindByID(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	got.Status = trip.StatusCancelled
	again, err := repo.FindByID(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.StatusPending, again.Status)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, trip.ErrTripNotFound)
}

// TestFindAll_Pages tests paging newest first
func TestFindAll_Pages(t *testing.T) {
	repo := NewTripRepository()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tr := newTrip()
		tr.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := repo.Save(context.Background(), tr)
		require.NoError(t, err)
	}

	first, err := repo.FindAll(context.Background(), trip.NewPageRequest(0, 2))
	require.NoError(t, err)
	assert.Len(t, first.Items, 2)
	assert.Equal(t, int64(5), first.TotalItems)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.Items[0].CreatedAt.Equal(base.Add(4*time.Minute)))

	last, err := repo.FindAll(context.Background(), trip.NewPageRequest(2, 2))
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)
	assert.True(t, last.Items[0].CreatedAt.Equal(base))

	beyond, err := repo.FindAll(context.Background(), trip.NewPageRequest(9, 2))
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, int64(5), beyond.TotalItems)
}

// TestSave_Concurrent tests that parallel inserts are all stored
func TestSave_Concurrent(t *testing.T) {
	repo := NewTripRepository()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Save(context.Background(), newTrip())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	page, err := repo.FindAll(context.Background(), trip.NewPageRequest(0, 100))
	require.NoError(t, err)
	assert.Equal(t, int64(50), page.TotalItems)
}

// TestCancelledContext tests that a cancelled context is honoured
func TestCancelledContext(t *testing.T) {
	repo := NewTripRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Save(ctx, newTrip())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}
