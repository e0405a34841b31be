package commonerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "VALIDATION"
	CategoryNotFound      ErrorCategory = "NOT_FOUND"
	CategoryConflict      ErrorCategory = "CONFLICT"
	CategoryUnauthorized  ErrorCategory = "UNAUTHORIZED"
	CategoryInternal      ErrorCategory = "INTERNAL"
	CategoryExternal      ErrorCategory = "EXTERNAL"
	CategoryConfiguration ErrorCategory = "CONFIGURATION"
)

// DomainError is an error with a stable client-facing code, message and
// HTTP status. The optional cause is for logs only and is never sent to
// clients, except for validation failures.
type DomainError interface {
	error
	Code() string
	Category() ErrorCategory
	HTTPStatus() int
	Message() string
	Unwrap() error
	WithCause(cause error) DomainError
}

type domainError struct {
	code     string
	category ErrorCategory
	status   int
	message  string
	cause    error
}

func NewDomainError(code string, category ErrorCategory, status int, message string) DomainError {
	return &domainError{code: code, category: category, status: status, message: message}
}

func (e *domainError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %v", e.message, e.cause)
}

func (e *domainError) Code() string            { return e.code }
func (e *domainError) Category() ErrorCategory { return e.category }
func (e *domainError) HTTPStatus() int         { return e.status }
func (e *domainError) Message() string         { return e.message }
func (e *domainError) Unwrap() error           { return e.cause }

// Is matches on code, so a copy made by WithCause still satisfies errors.Is
// against the sentinel it was derived from.
func (e *domainError) Is(target error) bool {
	var other *domainError
	return errors.As(target, &other) && e.code == other.code
}

func (e *domainError) WithCause(cause error) DomainError {
	clone := *e
	clone.cause = cause
	return &clone
}

func IsDomainError(err error) bool {
	_, ok := AsDomainError(err)
	return ok
}

func AsDomainError(err error) (DomainError, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

var (
	ErrValidation = NewDomainError(
		"VALIDATION_FAILED",
		CategoryValidation,
		http.StatusBadRequest,
		"validation failed",
	)

	ErrInvalidToken = NewDomainError(
		"INVALID_TOKEN",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"Invalid or expired token",
	)

	ErrMissingAuthorization = NewDomainError(
		"MISSING_AUTHORIZATION",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"Access token required",
	)

	ErrConfiguration = NewDomainError(
		"CONFIGURATION_ERROR",
		CategoryConfiguration,
		http.StatusInternalServerError,
		"JWT secret not configured",
	)

	// ErrCircuitOpen is returned by resilience.CircuitBreaker; callers usually
	// translate it into their own unavailability error.
	ErrCircuitOpen = NewDomainError(
		"CIRCUIT_OPEN",
		CategoryExternal,
		http.StatusServiceUnavailable,
		"circuit breaker is open",
	)

	ErrInternalError = NewDomainError(
		"INTERNAL_ERROR",
		CategoryInternal,
		http.StatusInternalServerError,
		"internal server error",
	)
)
