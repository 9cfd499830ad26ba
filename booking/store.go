/*
store.go - Persistence interface for resources and reservations

PURPOSE:
  Defines the interface between the booking core and the database.
  The core never embeds a specific backend client; it depends only on
  this interface. Implementations: store/sqlite (production) and
  store/memory (tests/dev).

NOT-FOUND CONTRACT:
  GetResource/GetReservation return ErrResourceNotFound /
  ErrReservationNotFound (possibly wrapped) for missing ids, so callers
  can use errors.Is.

SEE ALSO:
  - store/sqlite/sqlite.go: SQLite implementation
  - store/memory/memory.go: In-memory implementation
*/
package booking

import (
	"context"
	"time"
)

// Store handles persistence of resources and reservations.
type Store interface {
	// SaveResource creates or replaces a resource record.
	SaveResource(ctx context.Context, r Resource) error

	// GetResource returns a resource by id.
	GetResource(ctx context.Context, id ResourceID) (Resource, error)

	// ListResources returns all resources ordered by id.
	ListResources(ctx context.Context) ([]Resource, error)

	// SetResourceStatus updates a resource's point-in-time status.
	SetResourceStatus(ctx context.Context, id ResourceID, status ResourceStatus) error

	// SaveReservation persists a new reservation.
	SaveReservation(ctx context.Context, r Reservation) error

	// GetReservation returns a reservation by id.
	GetReservation(ctx context.Context, id ReservationID) (Reservation, error)

	// UpdateReservationStatus writes a status transition.
	UpdateReservationStatus(ctx context.Context, id ReservationID, status ReservationStatus, at time.Time) error

	// ListActiveByResource returns pending and confirmed reservations for
	// a resource, ordered by window start.
	ListActiveByResource(ctx context.Context, id ResourceID) ([]Reservation, error)
}
