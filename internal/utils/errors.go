package utils

import "net/http"

// AppError is an error with an HTTP status attached. Handlers translate
// it to the {"error": message} envelope; anything else becomes a 500.
type AppError struct {
	StatusCode int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequestError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message}
}

// NewUpstreamError relays an analysis-service failure: the original
// status code with the upstream's own message.
func NewUpstreamError(status int, message string) *AppError {
	return &AppError{StatusCode: status, Message: message}
}
