// Package trip holds the trip entity, its lifecycle rules and the value types
// it owns. It has no knowledge of storage or transport.
package trip

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle operation names, used in TransitionError and emitted events.
const (
	OpAccept   = "accept"
	OpStart    = "start"
	OpComplete = "complete"
	OpCancel   = "cancel"
)

// Trip represents one ride with its predicted price and lifecycle status.
// ID is uuid.Nil until the trip is first persisted.
type Trip struct {
	ID              uuid.UUID   `json:"id"`
	DistanceKM      float64     `json:"distance_km"`
	DurationMin     float64     `json:"duration_min"`
	EstimatedPrice  Price       `json:"estimated_price"`
	OriginZone      string      `json:"origin_zone,omitempty"`
	DestinationZone string      `json:"destination_zone,omitempty"`
	VehicleType     VehicleType `json:"vehicle_type"`
	Status          Status      `json:"status"`
	StartTime       time.Time   `json:"start_time"`
	EndTime         *time.Time  `json:"end_time,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// New builds a PENDING trip from validated features and price.
// Unknown or absent vehicle types default to STANDARD.
func New(f Features, price Price, now time.Time) *Trip {
	vehicle := VehicleStandard
	if v, ok := f.VehicleType.Get(); ok && v.IsValid() {
		vehicle = v
	}
	return &Trip{
		DistanceKM:      f.DistanceKM,
		DurationMin:     f.DurationMin,
		EstimatedPrice:  price,
		OriginZone:      f.OriginZone.OrZero(),
		DestinationZone: f.DestinationZone.OrZero(),
		VehicleType:     vehicle,
		Status:          StatusPending,
		StartTime:       now,
	}
}

// IsPersisted reports whether the repository has assigned an identifier
func (t *Trip) IsPersisted() bool {
	return t.ID != uuid.Nil
}

// Accept moves a PENDING trip to ACCEPTED
func (t *Trip) Accept() error {
	if t.Status != StatusPending {
		return &TransitionError{Op: OpAccept, From: t.Status}
	}
	t.Status = StatusAccepted
	return nil
}

// Start moves an ACCEPTED trip to IN_PROGRESS
func (t *Trip) Start() error {
	if t.Status != StatusAccepted {
		return &TransitionError{Op: OpStart, From: t.Status}
	}
	t.Status = StatusInProgress
	return nil
}

// Complete moves an IN_PROGRESS trip to COMPLETED and stamps the end time.
func (t *Trip) Complete(now time.Time) error {
	if t.Status != StatusInProgress {
		return &TransitionError{Op: OpComplete, From: t.Status}
	}
	t.Status = StatusCompleted
	t.EndTime = &now
	return nil
}

// Cancel moves any non-terminal trip to CANCELLED.
// A trip that is already CANCELLED is rejected like a COMPLETED one.
func (t *Trip) Cancel() error {
	if t.Status.IsTerminal() || !t.Status.IsValid() {
		return &TransitionError{Op: OpCancel, From: t.Status}
	}
	t.Status = StatusCancelled
	return nil
}

// Apply runs the named lifecycle operation.
func (t *Trip) Apply(op string, now time.Time) error {
	switch op {
	case OpAccept:
		return t.Accept()
	case OpStart:
		return t.Start()
	case OpComplete:
		return t.Complete(now)
	case OpCancel:
		return t.Cancel()
	}
	return &TransitionError{Op: op, From: t.Status}
}
