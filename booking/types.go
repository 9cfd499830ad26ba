/*
Package booking provides the reservation core: conflict detection,
priority-based admission, and the reservation lifecycle manager.

PURPOSE:
  A client asks to reserve a resource for a half-open interval. The
  conflict detector finds overlapping active reservations, the priority
  resolver decides admission, and the manager persists the result while
  keeping the interval index consistent with the store.

KEY CONCEPTS IN THIS FILE (types.go):
  - Resource: A reservable entity (physical item or staffing slot)
  - Reservation: A binding of resource to requester for an interval
  - Priority: low|normal|high|urgent; only urgent overrides conflicts
  - Status state machine: pending -> confirmed, pending/confirmed -> cancelled

DESIGN PRINCIPLES:
  1. The interval index holds only weak references; the store owns state
  2. Conflicts are computed, never persisted
  3. Admission is synchronous with a human in the loop; no preemption

SEE ALSO:
  - conflict.go: Conflict detector
  - priority.go: Admission policy
  - manager.go: Lifecycle orchestration
*/
package booking

import (
	"time"

	"github.com/warp/reservation-engine/interval"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ResourceID string
type ReservationID string

// =============================================================================
// RESOURCE - Reservable entity
// =============================================================================

type ResourceStatus string

const (
	ResourceAvailable ResourceStatus = "available"
	ResourceReserved  ResourceStatus = "reserved"
	ResourceInUse     ResourceStatus = "in_use" // checked out right now, ad-hoc
)

func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceAvailable, ResourceReserved, ResourceInUse:
		return true
	}
	return false
}

type Resource struct {
	ID     ResourceID
	Name   string
	Status ResourceStatus
}

// =============================================================================
// PRIORITY - Admission tiers
// =============================================================================

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Overrides reports whether this tier may be admitted despite conflicts.
// Deliberately a single escape hatch rather than a negotiated queue:
// conflicts resolve synchronously at request time, never by preempting
// someone else's existing booking.
func (p Priority) Overrides() bool {
	return p == PriorityUrgent
}

// =============================================================================
// RESERVATION - Resource bound to a requester for [Pickup, Return)
// =============================================================================

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled" // terminal
)

// Active reports whether the reservation still occupies its interval.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

type Reservation struct {
	ID         ReservationID
	ResourceID ResourceID
	Requester  string
	Purpose    string // event/purpose label
	Window     interval.Interval
	Priority   Priority
	Status     ReservationStatus
	Notes      string

	CreatedAt time.Time
	UpdatedAt time.Time
}
