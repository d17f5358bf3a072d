package fingerprint

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMAC indicates an empty MAC address string
	ErrEmptyMAC = errors.New("MAC address is empty")

	// ErrInvalidMAC indicates a malformed MAC address
	ErrInvalidMAC = errors.New("invalid MAC address format")

	// ErrVendorNotFound indicates no vendor entry exists for the OUI
	ErrVendorNotFound = errors.New("vendor not found")

	// ErrRepositoryClosed indicates an operation on a closed repository
	ErrRepositoryClosed = errors.New("vendor repository is closed")
)

// ValidationError wraps a field-level parse failure.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DatabaseError wraps low-level OUI database failures with the operation name.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("oui database %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }
