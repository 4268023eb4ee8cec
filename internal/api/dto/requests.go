package dto

import (
	"github.com/gocomet/taxi-fare/internal/domain/trip"
)

// PredictionRequest is the body of POST /v1/predictions. Only distance and
// duration are required; the rest are hints forwarded to the predictor.
type PredictionRequest struct {
	DistanceKM      float64  `json:"distance_km" binding:"required,gt=0"`
	DurationMin     float64  `json:"duration_min" binding:"required,gt=0"`
	VehicleType     *string  `json:"vehicle_type" binding:"omitempty,oneof=STANDARD PREMIUM VAN"`
	PassengerCount  *int     `json:"passenger_count" binding:"omitempty,gte=1"`
	DemandIndex     *float64 `json:"demand_index" binding:"omitempty,gte=0"`
	HourOfDay       *int     `json:"hour_of_day" binding:"omitempty,gte=0,lte=23"`
	OriginZone      *string  `json:"origin_zone" binding:"omitempty,max=64"`
	DestinationZone *string  `json:"destination_zone" binding:"omitempty,max=64"`
}

// ToFeatures converts the request into prediction features
func (r *PredictionRequest) ToFeatures() *trip.Features {
	f := &trip.Features{
		DistanceKM:  r.DistanceKM,
		DurationMin: r.DurationMin,
	}
	if r.VehicleType != nil {
		f.VehicleType = trip.Some(trip.VehicleType(*r.VehicleType))
	}
	if r.PassengerCount != nil {
		f.PassengerCount = trip.Some(*r.PassengerCount)
	}
	if r.DemandIndex != nil {
		f.DemandIndex = trip.Some(*r.DemandIndex)
	}
	if r.HourOfDay != nil {
		f.HourOfDay = trip.Some(*r.HourOfDay)
	}
	if r.OriginZone != nil {
		f.OriginZone = trip.Some(*r.OriginZone)
	}
	if r.DestinationZone != nil {
		f.DestinationZone = trip.Some(*r.DestinationZone)
	}
	return f
}

// ListTripsQuery is the query string of GET /v1/trips
type ListTripsQuery struct {
	Page int `form:"page" binding:"omitempty,gte=0"`
	Size int `form:"size" binding:"omitempty,gte=1"`
}
