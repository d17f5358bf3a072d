package domain

import (
	"errors"
	"fmt"
)

// Domain errors shared across services and adapters.
var (
	// ErrInvalidObservation rejects records missing required fields before
	// feature extraction runs. Surfaced to API callers as a client error.
	ErrInvalidObservation = errors.New("invalid network observation")

	// ErrNotFitted means the feature extractor has no persisted encoder
	// state. Recoverable by training; inference degrades to rule-only.
	ErrNotFitted = errors.New("feature extractor not fitted")

	// ErrModelUnavailable means the classifier artifact is missing or
	// corrupt. Detection degrades to a neutral-confidence rule decision.
	ErrModelUnavailable = errors.New("classifier model unavailable")

	// ErrLedgerAppend wraps storage failures during block writes. The
	// verdict that triggered the append is still valid and returned.
	ErrLedgerAppend = errors.New("ledger append failed")
)

// ValidationError pins an invalid-observation error to the offending field.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s (%q): %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
