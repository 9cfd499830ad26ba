/*
store.go - Persistence interface for substitution requests and offers

PURPOSE:
  Offer state is persisted, including ExpiresAt, so the "30 minutes to
  respond" deadline survives process restarts. The expiry sweep queries
  PendingOffersDueBy instead of holding in-memory timers.

NOT-FOUND CONTRACT:
  GetRequest/GetOffer return ErrRequestNotFound/ErrOfferNotFound
  (possibly wrapped) for missing ids.

SEE ALSO:
  - coordinator.go: The only writer
  - api/scheduler.go: Expiry sweep
*/
package substitution

import (
	"context"
	"time"
)

// Store handles persistence of substitution requests and offers.
type Store interface {
	// SaveRequest persists a new substitution request.
	SaveRequest(ctx context.Context, r Request) error

	// GetRequest returns a request by id.
	GetRequest(ctx context.Context, id RequestID) (Request, error)

	// UpdateRequest replaces a request record (state transitions).
	UpdateRequest(ctx context.Context, r Request) error

	// SaveOffer persists a new offer.
	SaveOffer(ctx context.Context, o Offer) error

	// GetOffer returns an offer by id.
	GetOffer(ctx context.Context, id OfferID) (Offer, error)

	// UpdateOffer replaces an offer record.
	UpdateOffer(ctx context.Context, o Offer) error

	// OffersByRequest returns all offers for a request in issue order.
	OffersByRequest(ctx context.Context, id RequestID) ([]Offer, error)

	// PendingOffersDueBy returns pending offers whose deadline is at or
	// before the given instant. Used by the expiry sweep.
	PendingOffersDueBy(ctx context.Context, deadline time.Time) ([]Offer, error)

	// AssignedRequests returns all requests whose replacement has been
	// assigned. Used to rebuild the candidate calendar on startup.
	AssignedRequests(ctx context.Context) ([]Request, error)
}
