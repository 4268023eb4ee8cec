package trip

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for trip data access
type Repository interface {
	// Save inserts a trip without ID, assigning ID and CreatedAt, or updates an
	// existing one. CreatedAt is never overwritten once set.
	Save(ctx context.Context, t *Trip) (*Trip, error)

	// FindByID returns ErrTripNotFound when no trip has the given ID
	FindByID(ctx context.Context, id uuid.UUID) (*Trip, error)

	// FindAll returns one page of trips, most recent first
	FindAll(ctx context.Context, req PageRequest) (Page, error)
}
