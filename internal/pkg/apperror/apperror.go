package apperror

import "net/http"

// AppError is a custom error type that includes an HTTP status code and an optional internal error.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 409)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation creates a 400 error. The caller sent something unusable and
// must fix the request before retrying.
func Validation(message string) *AppError {
	return New(http.StatusBadRequest, message)
}

// Conflict creates a 409 error: lock not acquired, capacity exceeded,
// stock exhausted. Retrying later may succeed.
func Conflict(message string) *AppError {
	return New(http.StatusConflict, message)
}

// Invariant creates a 500 error for states that should be unreachable,
// e.g. check-in on an unpaid reservation. These indicate a bug or corrupt
// data and are never silently corrected.
func Invariant(message string) *AppError {
	return New(http.StatusInternalServerError, message)
}
