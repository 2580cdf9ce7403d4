package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is returned when the server answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidURL is returned when a page reference cannot be resolved
	// against the base URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrBodyTooLarge is returned when a response body exceeds MaxBodySize.
	// The page is not parsed, so a cut-off table never reaches an extractor.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrInvalidOptions is returned by New when Options fail validation.
	ErrInvalidOptions = errors.New("invalid fetch options")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	// URL is the absolute URL that was requested.
	URL string

	// StatusCode is the HTTP status returned by the server.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d from %s", ErrUnexpectedStatus, e.StatusCode, e.URL)
}

// Unwrap allows errors.Is(err, ErrUnexpectedStatus).
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}
