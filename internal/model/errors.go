package model

import "errors"

// ErrInvalidRecord is wrapped by every constructor and Validate method in this
// package when a record would break one of its invariants.
var ErrInvalidRecord = errors.New("invalid record")
