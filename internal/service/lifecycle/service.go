// Package lifecycle applies guarded status transitions to stored trips.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

// Recorder receives APM events for transitions
type Recorder interface {
	RecordTripTransition(op, from, to string)
}

// Publisher broadcasts trip events to live subscribers
type Publisher interface {
	PublishTripEvent(eventType string, t *trip.Trip)
}

// Service loads a trip, applies one transition and saves it back.
// Two requests racing on the same trip are resolved by the repository.
type Service struct {
	repo      trip.Repository
	log       logger.Sink
	recorder  Recorder
	publisher Publisher
	now       func() time.Time
}

// Option customizes a Service
type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the time source used to stamp completion
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new lifecycle service
func NewService(repo trip.Repository, log logger.Sink, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		log:       log,
		recorder:  nopRecorder{},
		publisher: nopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accept moves a PENDING trip to ACCEPTED
func (s *Service) Accept(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	return s.transition(ctx, id, trip.OpAccept)
}

// Start moves an ACCEPTED trip to IN_PROGRESS
func (s *Service) Start(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	return s.transition(ctx, id, trip.OpStart)
}

// Complete moves an IN_PROGRESS trip to COMPLETED
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	return s.transition(ctx, id, trip.OpComplete)
}

// Cancel moves a non-terminal trip to CANCELLED
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	return s.transition(ctx, id, trip.OpCancel)
}

// Get returns a single trip or trip.ErrTripNotFound
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.loadError(id, err)
	}
	return t, nil
}

// List returns one zero-based page of trips
func (s *Service) List(ctx context.Context, page, size int) (trip.Page, error) {
	req := trip.NewPageRequest(page, size)
	p, err := s.repo.FindAll(ctx, req)
	if err != nil {
		s.log.Error("Failed to list trips", logger.Err(err))
		return trip.Page{}, fmt.Errorf("%w: %w", trip.ErrPersistenceFailure, err)
	}
	return p, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, op string) (*trip.Trip, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.loadError(id, err)
	}

	from := t.Status
	if err := t.Apply(op, s.now()); err != nil {
		s.log.Warn("Rejected trip transition",
			logger.Stringer("trip_id", id),
			logger.String("operation", op),
			logger.String("status", string(from)),
		)
		return nil, err
	}

	saved, err := s.repo.Save(ctx, t)
	if err != nil {
		s.log.Error("Failed to persist trip transition",
			logger.Stringer("trip_id", id),
			logger.String("operation", op),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%w: %w", trip.ErrPersistenceFailure, err)
	}

	s.recorder.RecordTripTransition(op, string(from), string(saved.Status))
	s.publisher.PublishTripEvent(trip.TransitionEvent(op), saved)
	s.log.Info("Trip status changed",
		logger.Stringer("trip_id", id),
		logger.String("from", string(from)),
		logger.String("to", string(saved.Status)),
	)
	return saved, nil
}

// loadError passes not-found through and reports anything else as a
// persistence failure
func (s *Service) loadError(id uuid.UUID, err error) error {
	if errors.Is(err, trip.ErrTripNotFound) {
		return err
	}
	s.log.Error("Failed to load trip", logger.Stringer("trip_id", id), logger.Err(err))
	return fmt.Errorf("%w: %w", trip.ErrPersistenceFailure, err)
}

type nopRecorder struct{}

func (nopRecorder) RecordTripTransition(string, string, string) {}

type nopPublisher struct{}

func (nopPublisher) PublishTripEvent(string, *trip.Trip) {}
