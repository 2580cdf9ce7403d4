package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Placing is a player's final rank in a tournament.
// Standings rows without a rank map to PlacingUnknown.
type Placing int

// PlacingUnknown marks a player whose rank was not published.
// It is serialized as -1, which is what the loaders expect.
const PlacingUnknown Placing = -1

// ParsePlacing converts a data-placing attribute into a Placing.
// An empty value yields PlacingUnknown.
func ParsePlacing(s string) (Placing, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PlacingUnknown, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return PlacingUnknown, fmt.Errorf("%w: placing %q is not an integer", ErrInvalidRecord, s)
	}
	if n < 1 {
		return PlacingUnknown, nil
	}

	return Placing(n), nil
}

// Known reports whether the placing carries a real rank.
func (p Placing) Known() bool {
	return p >= 1
}

// String returns the rank, or "unknown".
func (p Placing) String() string {
	if !p.Known() {
		return "unknown"
	}
	return strconv.Itoa(int(p))
}
