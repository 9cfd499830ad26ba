/*
errors.go - Centralized error types for the booking core

PURPOSE:
  All booking errors in one place. Every error here is an expected,
  recoverable outcome that the caller must surface to a human (pick
  another date, escalate, resolve manually) - never a silent failure.
  Only infrastructure errors (store unreachable) propagate as plain
  wrapped errors.

USAGE:
  var conflictErr *booking.ConflictError
  if errors.As(err, &conflictErr) {
      // present conflictErr.Conflicts to the user
  }

SEE ALSO:
  - manager.go: Where these are returned
  - api/handlers.go: HTTP status mapping
*/
package booking

import (
	"errors"
	"fmt"

	"github.com/warp/reservation-engine/interval"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInterval is returned for an empty or malformed proposed
	// interval, before any conflict check runs.
	ErrInvalidInterval = errors.New("invalid interval: end must be after start")

	// ErrInvalidPriority is returned for an unknown priority tier.
	ErrInvalidPriority = errors.New("invalid priority tier")

	// ErrConflictRejected is returned when conflicts exist and the
	// requested priority does not authorize an override.
	ErrConflictRejected = errors.New("conflicting reservations exist")

	// ErrAlreadyCancelled is returned when cancelling a reservation twice.
	// Double-cancel is a hard failure here, not a no-op; callers relying
	// on idempotent retries must check status first.
	ErrAlreadyCancelled = errors.New("reservation already cancelled")

	// ErrInvalidTransition is returned for any other state-machine violation.
	ErrInvalidTransition = errors.New("invalid reservation state transition")

	// ErrResourceNotFound is returned when a referenced resource doesn't exist.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrReservationNotFound is returned when a referenced reservation doesn't exist.
	ErrReservationNotFound = errors.New("reservation not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConflictError carries the overlapping reservations so the caller can
// present who/when for manual resolution.
type ConflictError struct {
	ResourceID ResourceID
	Proposed   interval.Interval
	Conflicts  []Reservation
	InUseNow   bool
}

func (e *ConflictError) Error() string {
	if e.InUseNow && len(e.Conflicts) == 0 {
		return fmt.Sprintf("resource %s is currently in use", e.ResourceID)
	}
	return fmt.Sprintf("resource %s has %d conflicting reservation(s) for %s",
		e.ResourceID, len(e.Conflicts), e.Proposed)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflictRejected
}

// TransitionError reports an invalid status transition with context.
type TransitionError struct {
	ReservationID ReservationID
	From          ReservationStatus
	To            ReservationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("reservation %s: cannot transition %s -> %s", e.ReservationID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	if e.From == ReservationCancelled && e.To == ReservationCancelled {
		return ErrAlreadyCancelled
	}
	return ErrInvalidTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to the request itself
// rather than infrastructure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrInvalidPriority) ||
		errors.Is(err, ErrConflictRejected) ||
		errors.Is(err, ErrAlreadyCancelled) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound) ||
		errors.Is(err, ErrReservationNotFound)
}
