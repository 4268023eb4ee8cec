package dto

import apperrors "github.com/gocomet/taxi-fare/pkg/errors"

// ErrorResponse is the JSON envelope of every failed request
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse builds the envelope for an application error
func NewErrorResponse(err *apperrors.AppError, requestID string) ErrorResponse {
	return ErrorResponse{Code: err.Code, Message: err.Message, RequestID: requestID}
}
