// Package sentinel holds the errors repositories return for storage facts.
// Services map them onto domain errors; see ports.Lookup.
package sentinel

import "errors"

var (
	// ErrNotFound is returned when the row or aggregate does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write breaks a uniqueness rule, such as
	// a second active defense for one doctorate.
	ErrConflict = errors.New("conflict")
)
