/*
Package memory provides in-memory store implementations (tests/dev).

PURPOSE:
  Implements booking.Store, substitution.Store, and
  substitution.Directory with RWMutex-guarded maps. State is process
  local; use store/sqlite for anything that must survive a restart.

SEE ALSO:
  - store/sqlite: Production implementation
*/
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/reservation-engine/booking"
	"github.com/warp/reservation-engine/substitution"
)

// Store implements all storage interfaces in memory.
type Store struct {
	mu sync.RWMutex

	resources    map[booking.ResourceID]booking.Resource
	reservations map[booking.ReservationID]booking.Reservation

	requests map[substitution.RequestID]substitution.Request
	offers   map[substitution.OfferID]substitution.Offer
	// offerOrder preserves issue order per request.
	offerOrder map[substitution.RequestID][]substitution.OfferID

	assignments map[substitution.AssignmentID]substitution.Assignment
	candidates  map[substitution.AssignmentID][]substitution.Candidate
}

func New() *Store {
	return &Store{
		resources:    make(map[booking.ResourceID]booking.Resource),
		reservations: make(map[booking.ReservationID]booking.Reservation),
		requests:     make(map[substitution.RequestID]substitution.Request),
		offers:       make(map[substitution.OfferID]substitution.Offer),
		offerOrder:   make(map[substitution.RequestID][]substitution.OfferID),
		assignments:  make(map[substitution.AssignmentID]substitution.Assignment),
		candidates:   make(map[substitution.AssignmentID][]substitution.Candidate),
	}
}

// =============================================================================
// booking.Store
// =============================================================================

func (s *Store) SaveResource(_ context.Context, r booking.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Status == "" {
		r.Status = booking.ResourceAvailable
	}
	s.resources[r.ID] = r
	return nil
}

func (s *Store) GetResource(_ context.Context, id booking.ResourceID) (booking.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok {
		return booking.Resource{}, fmt.Errorf("%s: %w", id, booking.ErrResourceNotFound)
	}
	return r, nil
}

func (s *Store) ListResources(_ context.Context) ([]booking.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]booking.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) SetResourceStatus(_ context.Context, id booking.ResourceID, status booking.ResourceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, booking.ErrResourceNotFound)
	}
	r.Status = status
	s.resources[id] = r
	return nil
}

func (s *Store) SaveReservation(_ context.Context, r booking.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.ID] = r
	return nil
}

func (s *Store) GetReservation(_ context.Context, id booking.ReservationID) (booking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return booking.Reservation{}, fmt.Errorf("%s: %w", id, booking.ErrReservationNotFound)
	}
	return r, nil
}

func (s *Store) UpdateReservationStatus(_ context.Context, id booking.ReservationID, status booking.ReservationStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, booking.ErrReservationNotFound)
	}
	r.Status = status
	r.UpdatedAt = at
	s.reservations[id] = r
	return nil
}

func (s *Store) ListActiveByResource(_ context.Context, id booking.ResourceID) ([]booking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []booking.Reservation
	for _, r := range s.reservations {
		if r.ResourceID == id && r.Status.Active() {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Window.Start.Before(result[j].Window.Start)
	})
	return result, nil
}

// =============================================================================
// substitution.Store
// =============================================================================

func (s *Store) SaveRequest(_ context.Context, r substitution.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = r
	return nil
}

func (s *Store) GetRequest(_ context.Context, id substitution.RequestID) (substitution.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return substitution.Request{}, fmt.Errorf("%s: %w", id, substitution.ErrRequestNotFound)
	}
	return r, nil
}

func (s *Store) UpdateRequest(_ context.Context, r substitution.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return fmt.Errorf("%s: %w", r.ID, substitution.ErrRequestNotFound)
	}
	s.requests[r.ID] = r
	return nil
}

func (s *Store) SaveOffer(_ context.Context, o substitution.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers[o.ID] = o
	s.offerOrder[o.RequestID] = append(s.offerOrder[o.RequestID], o.ID)
	return nil
}

func (s *Store) GetOffer(_ context.Context, id substitution.OfferID) (substitution.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offers[id]
	if !ok {
		return substitution.Offer{}, fmt.Errorf("%s: %w", id, substitution.ErrOfferNotFound)
	}
	return o, nil
}

func (s *Store) UpdateOffer(_ context.Context, o substitution.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offers[o.ID]; !ok {
		return fmt.Errorf("%s: %w", o.ID, substitution.ErrOfferNotFound)
	}
	s.offers[o.ID] = o
	return nil
}

func (s *Store) OffersByRequest(_ context.Context, id substitution.RequestID) ([]substitution.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.offerOrder[id]
	result := make([]substitution.Offer, 0, len(ids))
	for _, oid := range ids {
		result = append(result, s.offers[oid])
	}
	return result, nil
}

func (s *Store) AssignedRequests(_ context.Context) ([]substitution.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []substitution.Request
	for _, r := range s.requests {
		if r.Replacement == substitution.ReplacementAssigned {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) PendingOffersDueBy(_ context.Context, deadline time.Time) ([]substitution.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []substitution.Offer
	for _, o := range s.offers {
		if o.Response == substitution.OfferPending && !o.ExpiresAt.After(deadline) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ExpiresAt.Before(result[j].ExpiresAt) })
	return result, nil
}

// =============================================================================
// substitution.Directory
// =============================================================================

// SaveAssignment seeds directory data (dev/demo/tests).
func (s *Store) SaveAssignment(_ context.Context, a substitution.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.ID] = a
	return nil
}

// SaveCandidate seeds a candidate for an assignment.
func (s *Store) SaveCandidate(_ context.Context, assignmentID substitution.AssignmentID, c substitution.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[assignmentID] = append(s.candidates[assignmentID], c)
	return nil
}

func (s *Store) Assignment(_ context.Context, id substitution.AssignmentID) (substitution.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[id]
	if !ok {
		return substitution.Assignment{}, fmt.Errorf("%s: %w", id, substitution.ErrAssignmentNotFound)
	}
	return a, nil
}

func (s *Store) Candidates(_ context.Context, id substitution.AssignmentID) ([]substitution.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]substitution.Candidate, len(s.candidates[id]))
	copy(result, s.candidates[id])
	return result, nil
}
