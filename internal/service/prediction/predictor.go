package prediction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
)

// Predictor turns trip features into a raw price. Implementations report
// dependency failures wrapped in trip.ErrServiceUnavailable; the returned
// amount is validated by the caller, so it may be invalid (null, negative or
// too precise).
type Predictor interface {
	Predict(ctx context.Context, f trip.Features) (decimal.NullDecimal, error)
}

// PredictorFunc adapts a plain function to Predictor
type PredictorFunc func(ctx context.Context, f trip.Features) (decimal.NullDecimal, error)

func (fn PredictorFunc) Predict(ctx context.Context, f trip.Features) (decimal.NullDecimal, error) {
	return fn(ctx, f)
}

// Recorder receives APM metrics for predictions
type Recorder interface {
	RecordTripPredicted(vehicleType string, price float64, distanceKM float64, latency time.Duration)
	RecordPredictionFailure(reason string)
}

// Publisher broadcasts trip events to live subscribers
type Publisher interface {
	PublishTripEvent(eventType string, t *trip.Trip)
}
