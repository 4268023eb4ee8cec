// Package prediction validates trip features, obtains a price from a
// Predictor and persists the resulting PENDING trip.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

// Config holds the diagnostic thresholds. Breaching one is logged, never rejected.
type Config struct {
	PriceWarnThreshold decimal.Decimal
	MaxDistanceKM      float64
	MaxDurationMin     float64
	MinSpeedKMH        float64
	MaxSpeedKMH        float64
}

// DefaultConfig returns the production thresholds
func DefaultConfig() Config {
	return Config{
		PriceWarnThreshold: decimal.NewFromInt(10000),
		MaxDistanceKM:      1000,
		MaxDurationMin:     1440,
		MinSpeedKMH:        1,
		MaxSpeedKMH:        300,
	}
}

// Failure reasons reported to the Recorder
const (
	reasonInvalidInput = "invalid_input"
	reasonPredictor    = "service_unavailable"
	reasonInvalidPrice = "invalid_prediction"
	reasonPersistence  = "persistence_failure"
)

// Orchestrator runs the prediction and persistence pipeline
type Orchestrator struct {
	predictor Predictor
	repo      trip.Repository
	log       logger.Sink
	cfg       Config
	recorder  Recorder
	publisher Publisher
	now       func() time.Time
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithRecorder reports metrics to r
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithPublisher broadcasts trip_created events to p
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithClock overrides the time source used for the trip start time
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates a new prediction orchestrator
func NewOrchestrator(p Predictor, repo trip.Repository, log logger.Sink, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		predictor: p,
		repo:      repo,
		log:       log,
		cfg:       cfg,
		recorder:  nopRecorder{},
		publisher: nopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PredictAndPersist validates f, asks the predictor for a price and stores a
// new PENDING trip. It fails with trip.ErrInvalidInput,
// trip.ErrServiceUnavailable or trip.ErrPersistenceFailure.
func (o *Orchestrator) PredictAndPersist(ctx context.Context, f *trip.Features) (*trip.Trip, error) {
	if err := f.Validate(); err != nil {
		o.log.Warn("Prediction request rejected", logger.Err(err))
		o.recorder.RecordPredictionFailure(reasonInvalidInput)
		return nil, err
	}
	o.checkFeatures(f)

	o.log.Info("Requesting price prediction",
		logger.Float64("distance_km", f.DistanceKM),
		logger.Float64("duration_min", f.DurationMin),
	)

	started := time.Now()
	price, err := o.predict(ctx, f)
	if err != nil {
		return nil, err
	}
	latency := time.Since(started)

	if price.GreaterThan(o.cfg.PriceWarnThreshold) {
		o.log.Warn("Predicted price above threshold",
			logger.Stringer("price", price),
			logger.Stringer("threshold", o.cfg.PriceWarnThreshold),
		)
	}

	saved, err := o.repo.Save(ctx, trip.New(*f, price, o.now()))
	if err != nil {
		o.log.Error("Failed to persist trip", logger.Err(err))
		o.recorder.RecordPredictionFailure(reasonPersistence)
		return nil, fmt.Errorf("%w: %w", trip.ErrPersistenceFailure, err)
	}
	if saved == nil || !saved.IsPersisted() {
		o.log.Error("Repository returned trip without identifier")
		o.recorder.RecordPredictionFailure(reasonPersistence)
		return nil, fmt.Errorf("%w: saved trip has no identifier", trip.ErrPersistenceFailure)
	}

	amount, _ := saved.EstimatedPrice.Decimal().Float64()
	o.recorder.RecordTripPredicted(string(saved.VehicleType), amount, saved.DistanceKM, latency)
	o.publisher.PublishTripEvent(trip.EventCreated, saved)

	o.log.Info("Trip persisted",
		logger.Stringer("trip_id", saved.ID),
		logger.Stringer("price", saved.EstimatedPrice),
		logger.Duration("prediction_latency", latency),
	)
	return saved, nil
}

// predict calls the predictor and validates the returned amount. Every
// failure comes back as trip.ErrServiceUnavailable.
func (o *Orchestrator) predict(ctx context.Context, f *trip.Features) (trip.Price, error) {
	raw, err := o.predictor.Predict(ctx, *f)
	if err != nil {
		o.log.Error("Price prediction failed", logger.Err(err))
		o.recorder.RecordPredictionFailure(reasonPredictor)
		if errors.Is(err, trip.ErrServiceUnavailable) {
			return trip.Price{}, err
		}
		return trip.Price{}, fmt.Errorf("%w: unexpected prediction error: %w", trip.ErrServiceUnavailable, err)
	}

	price, err := trip.NewPrice(raw)
	if err != nil {
		o.log.Error("Predictor returned an unusable price", logger.Err(err))
		o.recorder.RecordPredictionFailure(reasonInvalidPrice)
		return trip.Price{}, fmt.Errorf("%w: invalid prediction result: %w", trip.ErrServiceUnavailable, err)
	}
	return price, nil
}

// checkFeatures logs suspicious but accepted inputs
func (o *Orchestrator) checkFeatures(f *trip.Features) {
	if f.DistanceKM > o.cfg.MaxDistanceKM {
		o.log.Warn("Unusually long trip distance",
			logger.Float64("distance_km", f.DistanceKM),
			logger.Float64("max_distance_km", o.cfg.MaxDistanceKM),
		)
	}
	if f.DurationMin > o.cfg.MaxDurationMin {
		o.log.Warn("Unusually long trip duration",
			logger.Float64("duration_min", f.DurationMin),
			logger.Float64("max_duration_min", o.cfg.MaxDurationMin),
		)
	}
	if speed := f.AverageSpeedKMH(); speed < o.cfg.MinSpeedKMH || speed > o.cfg.MaxSpeedKMH {
		o.log.Warn("Implausible average speed",
			logger.Float64("speed_kmh", speed),
			logger.Float64("min_speed_kmh", o.cfg.MinSpeedKMH),
			logger.Float64("max_speed_kmh", o.cfg.MaxSpeedKMH),
		)
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordTripPredicted(string, float64, float64, time.Duration) {}
func (nopRecorder) RecordPredictionFailure(string) {}

type nopPublisher struct{}

func (nopPublisher) PublishTripEvent(string, *trip.Trip) {}
