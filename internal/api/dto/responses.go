package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
)

// TripResponse is the JSON representation of a trip
type TripResponse struct {
	ID              uuid.UUID        `json:"id"`
	DistanceKM      float64          `json:"distance_km"`
	DurationMin     float64          `json:"duration_min"`
	EstimatedPrice  trip.Price       `json:"estimated_price"`
	OriginZone      string           `json:"origin_zone,omitempty"`
	DestinationZone string           `json:"destination_zone,omitempty"`
	VehicleType     trip.VehicleType `json:"vehicle_type"`
	Status          trip.Status      `json:"status"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         *time.Time       `json:"end_time,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// NewTripResponse maps a trip to its response
func NewTripResponse(t *trip.Trip) TripResponse {
	return TripResponse{
		ID:              t.ID,
		DistanceKM:      t.DistanceKM,
		DurationMin:     t.DurationMin,
		EstimatedPrice:  t.EstimatedPrice,
		OriginZone:      t.OriginZone,
		DestinationZone: t.DestinationZone,
		VehicleType:     t.VehicleType,
		Status:          t.Status,
		StartTime:       t.StartTime,
		EndTime:         t.EndTime,
		CreatedAt:       t.CreatedAt,
	}
}

// TripPageResponse is one page of the trip listing
type TripPageResponse struct {
	Items      []TripResponse `json:"items"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	TotalItems int64          `json:"total_items"`
	TotalPages int            `json:"total_pages"`
}

// NewTripPageResponse maps a page of trips
func NewTripPageResponse(p trip.Page) TripPageResponse {
	items := make([]TripResponse, 0, len(p.Items))
	for _, t := range p.Items {
		items = append(items, NewTripResponse(t))
	}
	return TripPageResponse{
		Items:      items,
		Page:       p.Page,
		Size:       p.Size,
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages,
	}
}
