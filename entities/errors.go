package entities

import (
	"errors"
	"fmt"
)

// ValidationError reports a request that is missing a required scope UID
// or otherwise malformed. It is raised before any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// UpstreamError reports a non-2xx response from the archive, keeping the
// status and body for diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}

// UpstreamUnavailableError reports a connection-level failure before any
// HTTP status was received.
type UpstreamUnavailableError struct {
	URL string
	Err error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("upstream unavailable at %s: %s", e.URL, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response or file body that could not be parsed
// as the expected content type.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode body as %s: %s", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a resource that is absent locally. Empty search
// result sets are not errors and never produce one.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
