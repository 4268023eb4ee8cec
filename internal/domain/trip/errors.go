package trip

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidPrediction  = errors.New("invalid prediction")
	ErrServiceUnavailable = errors.New("prediction service unavailable")
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrTripNotFound       = errors.New("trip not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// TransitionError reports a lifecycle operation attempted from a status that
// does not allow it. It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	Op   string
	From Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: cannot %s trip in status %s", e.Op, e.From)
}

// Is reports whether target is ErrInvalidTransition
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
