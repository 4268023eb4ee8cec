// Package cache decorates a trip repository with a Redis read-through cache
// keyed by trip ID.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

// TripRepository caches FindByID results and refreshes the entry on Save.
// Listing always goes to the wrapped repository. Redis failures are logged
// and the wrapped repository is used instead.
type TripRepository struct {
	next  trip.Repository
	redis redis.Cmdable
	ttl   time.Duration
	log   logger.Sink
}

var _ trip.Repository = (*TripRepository)(nil)

// NewTripRepository wraps next with a cache whose entries live for ttl
func NewTripRepository(next trip.Repository, rdb redis.Cmdable, ttl time.Duration, log logger.Sink) *TripRepository {
	return &TripRepository{next: next, redis: rdb, ttl: ttl, log: log}
}

func tripKey(id uuid.UUID) string {
	return fmt.Sprintf("trip:%s", id)
}

func (r *TripRepository) Save(ctx context.Context, t *trip.Trip) (*trip.Trip, error) {
	saved, err := r.next.Save(ctx, t)
	if err != nil {
		if t != nil && t.IsPersisted() {
			r.evict(ctx, t.ID)
		}
		return nil, err
	}
	if saved != nil && saved.IsPersisted() {
		r.store(ctx, saved)
	}
	return saved, nil
}

func (r *TripRepository) FindByID(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	data, err := r.redis.Get(ctx, tripKey(id)).Bytes()
	switch {
	case err == nil:
		var cached trip.Trip
		jsonErr := json.Unmarshal(data, &cached)
		if jsonErr == nil {
			return &cached, nil
		}
		r.log.Warn("Discarding unreadable cached trip", logger.Stringer("trip_id", id), logger.Err(jsonErr))
	case !errors.Is(err, redis.Nil):
		r.log.Warn("Trip cache read failed", logger.Stringer("trip_id", id), logger.Err(err))
	}

	t, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, t)
	return t, nil
}

func (r *TripRepository) FindAll(ctx context.Context, req trip.PageRequest) (trip.Page, error) {
	return r.next.FindAll(ctx, req)
}

func (r *TripRepository) store(ctx context.Context, t *trip.Trip) {
	data, err := json.Marshal(t)
	if err != nil {
		r.log.Warn("Failed to encode trip for cache", logger.Stringer("trip_id", t.ID), logger.Err(err))
		return
	}
	if err := r.redis.Set(ctx, tripKey(t.ID), data, r.ttl).Err(); err != nil {
		r.log.Warn("Trip cache write failed", logger.Stringer("trip_id", t.ID), logger.Err(err))
	}
}

func (r *TripRepository) evict(ctx context.Context, id uuid.UUID) {
	if err := r.redis.Del(ctx, tripKey(id)).Err(); err != nil {
		r.log.Warn("Trip cache eviction failed", logger.Stringer("trip_id", id), logger.Err(err))
	}
}
