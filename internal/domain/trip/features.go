package trip

import (
	"fmt"
	"math"
)

// Features are the inputs of a price prediction. DistanceKM and DurationMin are
// required; everything else is an optional hint for the model and never
// changes how the required fields are validated.
type Features struct {
	DistanceKM      float64
	DurationMin     float64
	VehicleType     Optional[VehicleType]
	PassengerCount  Optional[int]
	DemandIndex     Optional[float64]
	HourOfDay       Optional[int]
	OriginZone      Optional[string]
	DestinationZone Optional[string]
}

// Validate checks the required fields in order and returns the first violation
// wrapped in ErrInvalidInput.
func (f *Features) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: features are required", ErrInvalidInput)
	}
	if !isFinite(f.DistanceKM) || !isFinite(f.DurationMin) {
		return fmt.Errorf("%w: distance and duration must be finite numbers", ErrInvalidInput)
	}
	if f.DistanceKM <= 0 {
		return fmt.Errorf("%w: distance must be greater than zero", ErrInvalidInput)
	}
	if f.DurationMin <= 0 {
		return fmt.Errorf("%w: duration must be greater than zero", ErrInvalidInput)
	}
	return nil
}

// AverageSpeedKMH returns the implied average speed in km/h.
func (f *Features) AverageSpeedKMH() float64 {
	return f.DistanceKM / (f.DurationMin / 60.0)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
