/*
errors.go - Centralized error types for the substitution engine

PURPOSE:
  Expected, recoverable outcomes returned as typed errors. Exhaustion
  carries the full per-candidate outcome list so a human can escalate
  with context, not a bare failure.
*/
package substitution

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoEligibleCandidates means ranking produced an empty list, e.g.
	// every candidate failed the hard availability filter.
	ErrNoEligibleCandidates = errors.New("no eligible candidates")

	// ErrSubstitutionExhausted means every ranked candidate declined or
	// let their offer expire.
	ErrSubstitutionExhausted = errors.New("substitution exhausted: all candidates declined or expired")

	// ErrOfferExpired is returned for a response received after the
	// offer's hard deadline. No grace period.
	ErrOfferExpired = errors.New("offer expired")

	// ErrOfferResolved is returned when responding to an offer that was
	// already accepted or declined.
	ErrOfferResolved = errors.New("offer already resolved")

	// ErrVerificationRequired gates ranking and offers behind the
	// one-time-code verification step.
	ErrVerificationRequired = errors.New("substitution request not verified")

	// ErrCodeMismatch is returned for a wrong verification code.
	ErrCodeMismatch = errors.New("verification code mismatch")

	// ErrInvalidState is returned for replacement state-machine violations.
	ErrInvalidState = errors.New("invalid replacement state transition")

	// ErrInvalidWindow is returned for a malformed unavailable interval.
	ErrInvalidWindow = errors.New("invalid unavailable interval: end must be after start")

	// ErrRequestNotFound / ErrOfferNotFound / ErrAssignmentNotFound
	// indicate missing records.
	ErrRequestNotFound    = errors.New("substitution request not found")
	ErrOfferNotFound      = errors.New("offer not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// OfferOutcome is one line of the exhaustion report.
type OfferOutcome struct {
	CandidateID CandidateID
	Rank        int
	Response    OfferResponse
	SentAt      time.Time
}

// ExhaustedError carries the full declined/expired list for manual
// escalation.
type ExhaustedError struct {
	RequestID RequestID
	Outcomes  []OfferOutcome
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("substitution request %s exhausted after %d offer(s)", e.RequestID, len(e.Outcomes))
}

func (e *ExhaustedError) Unwrap() error {
	return ErrSubstitutionExhausted
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsClientError(err error) bool {
	return errors.Is(err, ErrNoEligibleCandidates) ||
		errors.Is(err, ErrSubstitutionExhausted) ||
		errors.Is(err, ErrOfferExpired) ||
		errors.Is(err, ErrOfferResolved) ||
		errors.Is(err, ErrVerificationRequired) ||
		errors.Is(err, ErrCodeMismatch) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvalidWindow)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrOfferNotFound) ||
		errors.Is(err, ErrAssignmentNotFound)
}
