package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedLayout is returned when a pairings page is neither a
	// bracket nor a results table. It aborts the crawl unless the caller
	// isolates layout failures per tournament.
	ErrUnrecognizedLayout = errors.New("unrecognized pairings layout")

	// ErrMissingElement is returned when a page lacks an element or
	// attribute the extraction cannot do without.
	ErrMissingElement = errors.New("missing page element")

	// ErrBadCardCount is returned when a decklist entry does not start with
	// a digit.
	ErrBadCardCount = errors.New("bad card count")
)

// LayoutError identifies the pairings page whose layout was not recognized.
type LayoutError struct {
	TournamentID string
	URL          string
}

// Error implements the error interface.
func (e *LayoutError) Error() string {
	return fmt.Sprintf("tournament %s: %s at %s", e.TournamentID, ErrUnrecognizedLayout, e.URL)
}

// Unwrap allows errors.Is(err, ErrUnrecognizedLayout).
func (e *LayoutError) Unwrap() error {
	return ErrUnrecognizedLayout
}
