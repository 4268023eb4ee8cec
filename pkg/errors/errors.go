package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Error codes returned in the JSON envelope
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodePredictionDown     = "PREDICTION_SERVICE_UNAVAILABLE"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeInternal           = "INTERNAL_ERROR"
	CodeRequestInProgress  = "REQUEST_IN_PROGRESS"
)

// BadRequest creates a 400 error
func BadRequest(message string, err error) *AppError {
	return NewAppError(CodeValidation, message, http.StatusBadRequest, err)
}

// NotFound creates a 404 error
func NotFound(message string, err error) *AppError {
	return NewAppError(CodeNotFound, message, http.StatusNotFound, err)
}

// Conflict creates a 409 error
func Conflict(message string, err error) *AppError {
	return NewAppError(CodeInvalidTransition, message, http.StatusConflict, err)
}

// Internal creates a 500 error
func Internal(message string, err error) *AppError {
	return NewAppError(CodeInternal, message, http.StatusInternalServerError, err)
}

// ServiceUnavailable creates a 503 error
func ServiceUnavailable(message string, err error) *AppError {
	return NewAppError(CodePredictionDown, message, http.StatusServiceUnavailable, err)
}

// FromDomain translates a trip domain error into its transport error.
// The message is the domain error text, which never carries internal detail
// beyond what the caller already supplied.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, trip.ErrInvalidInput):
		return BadRequest(err.Error(), err)
	case errors.Is(err, trip.ErrServiceUnavailable):
		return ServiceUnavailable("price prediction is currently unavailable", err)
	case errors.Is(err, trip.ErrPersistenceFailure):
		return NewAppError(CodePersistenceFailure, "trip could not be stored", http.StatusInternalServerError, err)
	case errors.Is(err, trip.ErrTripNotFound):
		return NotFound(err.Error(), err)
	case errors.Is(err, trip.ErrInvalidTransition):
		return Conflict(err.Error(), err)
	}
	return Internal("An unexpected error occurred", err)
}

// GetAppError attempts to convert an error to AppError
func GetAppError(err error) *AppError {
	return FromDomain(err)
}
