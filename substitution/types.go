/*
Package substitution finds replacements when an assignee becomes
unavailable: multi-factor candidate ranking plus a sequential,
time-boxed offer protocol.

PURPOSE:
  A sick-leave report creates a SubstitutionRequest. Once verified via
  a one-time code, the ranking engine scores eligible candidates
  (availability, skill match, distance, historical performance) and the
  coordinator offers the assignment to one candidate at a time, each
  with a hard response deadline.

KEY CONCEPTS IN THIS FILE (types.go):
  - Request: The substitution request with verification + replacement state
  - Assignment: The shift/slot needing cover (skills, radius, window)
  - Candidate: Directory record (skills, distance, rating)
  - Offer: Time-boxed proposal to exactly one candidate

SEQUENTIAL, NOT BROADCAST:
  At most one Offer is pending per request at a time. Broadcasting
  invites the double-commitment problem (two candidates accept at
  once); we trade latency for correctness since replacement decisions
  are not microsecond-critical.

SEE ALSO:
  - scoring.go, ranking.go: Candidate scoring
  - coordinator.go: Offer protocol
*/
package substitution

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/reservation-engine/interval"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RequestID string
type AssignmentID string
type CandidateID string
type OfferID string

// =============================================================================
// SUBSTITUTION REQUEST
// =============================================================================

type VerificationState string

const (
	VerificationPending  VerificationState = "pending"
	VerificationVerified VerificationState = "verified"
	VerificationRejected VerificationState = "rejected" // terminal
)

type ReplacementState string

const (
	ReplacementPending    ReplacementState = "pending"
	ReplacementInProgress ReplacementState = "in_progress"
	ReplacementAssigned   ReplacementState = "assigned" // terminal
	ReplacementFailed     ReplacementState = "failed"   // terminal
)

type Request struct {
	ID               RequestID
	AssignmentID     AssignmentID
	OriginalAssignee CandidateID
	Unavailable      interval.Interval
	Reason           string

	Verification   VerificationState
	VerifyCode     string // one-time code sent out-of-band
	VerifyAttempts int

	Replacement ReplacementState
	AssignedTo  CandidateID // set when Replacement == assigned

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// ASSIGNMENT & CANDIDATE - Read-only directory data
// =============================================================================

type Assignment struct {
	ID             AssignmentID
	Label          string
	RequiredSkills []string
	// MaxRadiusKm normalizes candidate distance; distances at or beyond
	// the radius score zero on the distance component.
	MaxRadiusKm float64
	Window      interval.Interval
}

type Candidate struct {
	ID     CandidateID
	Name   string
	Skills []string
	// DistanceKm is the candidate's distance to the assignment location,
	// computed by the directory.
	DistanceKm float64
	// Rating is the normalized [0,1] average of past performance, nil
	// for candidates with no history (cold start).
	Rating  *float64
	Contact string // notification recipient (phone/email)
}

// =============================================================================
// CANDIDATE SCORE - Ephemeral ranked output, never cached
// =============================================================================

type Score struct {
	CandidateID CandidateID
	Total       decimal.Decimal

	// Component breakdown (already weighted inputs, pre-weight values)
	Availability decimal.Decimal // 1 or excluded
	Skill        decimal.Decimal // overlap ratio [0,1]
	Distance     decimal.Decimal // 1 - normalized distance, [0,1]
	Performance  decimal.Decimal // historical rating [0,1]
}

// =============================================================================
// OFFER - Time-boxed proposal to one candidate
// =============================================================================

type OfferResponse string

const (
	OfferPending  OfferResponse = "pending"
	OfferAccepted OfferResponse = "accepted"
	OfferDeclined OfferResponse = "declined"
	OfferExpired  OfferResponse = "expired"
)

type Offer struct {
	ID          OfferID
	RequestID   RequestID
	CandidateID CandidateID
	Rank        int // position in the ranking when issued (1-based)
	SentAt      time.Time
	ExpiresAt   time.Time // hard deadline, persisted so it survives restarts
	Response    OfferResponse
	RespondedAt *time.Time
}
