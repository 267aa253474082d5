package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for missing or out-of-range request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrZoneNotFound is returned when an operation names a zone with no backing file.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrNotFound is returned by the zone store when the zone file is absent.
	ErrNotFound = errors.New("zone file not found")

	// ErrMalformedZone is returned when the SOA structure of a zone file is broken.
	ErrMalformedZone = errors.New("malformed zone file")

	// ErrAlreadyExists is returned when creating a zone file that is already present.
	ErrAlreadyExists = errors.New("zone file already exists")

	// ErrLookupFailed is returned when the lookup collaborator reports failure.
	ErrLookupFailed = errors.New("lookup failed")

	// ErrIOFailure wraps filesystem errors on zone or registry files.
	ErrIOFailure = errors.New("i/o failure")
)

// LookupError carries the diagnostic output of a failed lookup.
type LookupError struct {
	Domain  string
	Details string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup of %s failed: %s", e.Domain, e.Details)
}

// Unwrap lets errors.Is match ErrLookupFailed.
func (e *LookupError) Unwrap() error { return ErrLookupFailed }
