package trip

// Status represents the lifecycle status of a trip
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusAccepted   Status = "ACCEPTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// VehicleType represents the category of vehicle requested for a trip
type VehicleType string

const (
	VehicleStandard VehicleType = "STANDARD"
	VehiclePremium  VehicleType = "PREMIUM"
	VehicleVan      VehicleType = "VAN"
)

// IsValid validates the vehicle type
func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleStandard, VehiclePremium, VehicleVan:
		return true
	}
	return false
}

// VehicleTypes lists the supported vehicle categories
func VehicleTypes() []VehicleType {
	return []VehicleType{VehicleStandard, VehiclePremium, VehicleVan}
}
