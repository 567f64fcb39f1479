package apperrors

import "errors"

// Common errors
var (
	ErrResourceNotFound   = errors.New("resource not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidationFailed   = errors.New("validation failed")
	ErrBadRequest         = errors.New("bad request")
)

// Curriculum errors
var (
	ErrPartNotFound        = errors.New("part not found")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrInvalidChallengeID  = errors.New("invalid challenge ID, expected <part>.<number>")
	ErrMalformedCurriculum = errors.New("curriculum document is malformed")
)

// Grading errors
var (
	ErrEmptySQL         = errors.New("no SQL statements to run")
	ErrNotSandboxable   = errors.New("statement cannot run inside a transaction")
	ErrExpectedOutput   = errors.New("expected output cannot be parsed")
	ErrNothingToCompare = errors.New("challenge has no executable reference")
)

// Seed and verification errors
var (
	ErrSeedNotApplied       = errors.New("seed has not been applied")
	ErrSeedMismatch         = errors.New("seed counts do not match the script")
	ErrVerificationRunning  = errors.New("a verification run is already in progress")
	ErrVerificationNotFound = errors.New("verification run not found")
)

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}
