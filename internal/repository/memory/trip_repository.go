// Package memory provides a process-local trip repository used when no
// database is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
)

// TripRepository stores trips in a map guarded by a RWMutex.
// Stored and returned trips are copies, so callers never share state.
type TripRepository struct {
	mu    sync.RWMutex
	trips map[uuid.UUID]*trip.Trip
	now   func() time.Time
}

var _ trip.Repository = (*TripRepository)(nil)

// NewTripRepository creates an empty repository
func NewTripRepository() *TripRepository {
	return &TripRepository{
		trips: make(map[uuid.UUID]*trip.Trip),
		now:   time.Now,
	}
}

// Save inserts a trip without ID or replaces an existing one
func (r *TripRepository) Save(ctx context.Context, t *trip.Trip) (*trip.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("cannot save nil trip")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := clone(t)
	if !stored.IsPersisted() {
		stored.ID = uuid.New()
	} else if existing, ok := r.trips[stored.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now().UTC()
	}

	r.trips[stored.ID] = stored
	return clone(stored), nil
}

// FindByID returns trip.ErrTripNotFound when id is unknown
func (r *TripRepository) FindByID(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trips[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", trip.ErrTripNotFound, id)
	}
	return clone(t), nil
}

// FindAll returns trips newest first
func (r *TripRepository) FindAll(ctx context.Context, req trip.PageRequest) (trip.Page, error) {
	if err := ctx.Err(); err != nil {
		return trip.Page{}, err
	}

	r.mu.RLock()
	all := make([]*trip.Trip, 0, len(r.trips))
	for _, t := range r.trips {
		all = append(all, t)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	total := int64(len(all))
	start := min(req.Offset(), len(all))
	end := min(start+req.Size, len(all))

	items := make([]*trip.Trip, 0, end-start)
	for _, t := range all[start:end] {
		items = append(items, clone(t))
	}
	return trip.NewPage(items, req, total), nil
}

func clone(t *trip.Trip) *trip.Trip {
	c := *t
	if t.EndTime != nil {
		end := *t.EndTime
		c.EndTime = &end
	}
	return &c
}
