/*
manager.go - Reservation lifecycle orchestration

PURPOSE:
  Owns validated state transitions and keeps the interval index
  consistent with persisted state.

STATE MACHINE:
  pending -> confirmed
  pending -> cancelled
  confirmed -> cancelled
  No transition out of cancelled.

CONCURRENCY:
  The check-then-create sequence (detect -> resolve -> persist -> index)
  is a classic check-then-act race. Create/Cancel/Confirm for the same
  resource run under a per-resource mutex so two concurrent requests
  cannot both pass the conflict check against a stale view and
  double-book. Cross-resource operations run fully in parallel.

  Cancellation updates store and index under the same lock, so a
  concurrent conflict check never sees one without the other.

SEE ALSO:
  - conflict.go, priority.go: Admission pipeline
  - store.go: Persistence interface
*/
package booking

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/reservation-engine/interval"
)

// =============================================================================
// MANAGER
// =============================================================================

type Manager struct {
	store    Store
	index    *interval.Index
	detector *Detector

	// Per-resource mutual exclusion for check-then-act sequences.
	locksMu sync.Mutex
	locks   map[ResourceID]*sync.Mutex

	now func() time.Time
}

func NewManager(store Store, index *interval.Index) *Manager {
	return &Manager{
		store:    store,
		index:    index,
		detector: &Detector{Index: index, Store: store},
		locks:    make(map[ResourceID]*sync.Mutex),
		now:      time.Now,
	}
}

func (m *Manager) lockResource(id ResourceID) *sync.Mutex {
	m.locksMu.Lock()
	mu, ok := m.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[id] = mu
	}
	m.locksMu.Unlock()
	return mu
}

// Rehydrate rebuilds the interval index from persisted active
// reservations. Call once on startup before serving requests.
func (m *Manager) Rehydrate(ctx context.Context) error {
	resources, err := m.store.ListResources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list resources: %w", err)
	}
	for _, res := range resources {
		active, err := m.store.ListActiveByResource(ctx, res.ID)
		if err != nil {
			return fmt.Errorf("failed to load reservations for %s: %w", res.ID, err)
		}
		for _, rsv := range active {
			m.index.Insert(string(res.ID), rsv.Window, string(rsv.ID))
		}
	}
	return nil
}

// =============================================================================
// CREATE
// =============================================================================

type CreateInput struct {
	ResourceID ResourceID
	Requester  string
	Purpose    string
	Window     interval.Interval
	Priority   Priority
	Notes      string
}

// CreateResult is the success response. Conflicts is non-empty when an
// urgent reservation was admitted despite overlaps - the list is always
// attached for visibility.
type CreateResult struct {
	Reservation Reservation
	Decision    Decision
	Conflicts   []Reservation
}

// Create validates, detects conflicts, resolves admission, persists the
// reservation in pending, and indexes its interval.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if !in.Window.IsValid() {
		return nil, fmt.Errorf("proposed window %s: %w", in.Window, ErrInvalidInterval)
	}
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("%q: %w", in.Priority, ErrInvalidPriority)
	}

	mu := m.lockResource(in.ResourceID)
	mu.Lock()
	defer mu.Unlock()

	report, err := m.detector.Detect(ctx, in.ResourceID, in.Window)
	if err != nil {
		return nil, err
	}

	decision := Resolve(report, in.Priority)
	if !decision.Admit {
		return nil, &ConflictError{
			ResourceID: in.ResourceID,
			Proposed:   in.Window,
			Conflicts:  report.Conflicts,
			InUseNow:   report.InUseNow,
		}
	}

	if decision.Reason == ReasonUrgentOverride {
		for _, c := range report.Conflicts {
			if c.Priority == PriorityUrgent {
				log.Printf("[Booking] urgent double-booking on resource %s: new request %s overlaps urgent reservation %s",
					in.ResourceID, in.Window, c.ID)
				break
			}
		}
	}

	now := m.now()
	rsv := Reservation{
		ID:         ReservationID(uuid.NewString()),
		ResourceID: in.ResourceID,
		Requester:  in.Requester,
		Purpose:    in.Purpose,
		Window:     in.Window,
		Priority:   in.Priority,
		Status:     ReservationPending,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := m.store.SaveReservation(ctx, rsv); err != nil {
		return nil, fmt.Errorf("failed to persist reservation: %w", err)
	}
	m.index.Insert(string(in.ResourceID), in.Window, string(rsv.ID))

	return &CreateResult{Reservation: rsv, Decision: decision, Conflicts: report.Conflicts}, nil
}

// =============================================================================
// CONFIRM / CANCEL
// =============================================================================

// Confirm moves a reservation from pending to confirmed.
func (m *Manager) Confirm(ctx context.Context, id ReservationID) (Reservation, error) {
	rsv, err := m.store.GetReservation(ctx, id)
	if err != nil {
		return Reservation{}, err
	}

	mu := m.lockResource(rsv.ResourceID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock; a concurrent cancel may have won.
	rsv, err = m.store.GetReservation(ctx, id)
	if err != nil {
		return Reservation{}, err
	}
	if rsv.Status != ReservationPending {
		return Reservation{}, &TransitionError{ReservationID: id, From: rsv.Status, To: ReservationConfirmed}
	}

	now := m.now()
	if err := m.store.UpdateReservationStatus(ctx, id, ReservationConfirmed, now); err != nil {
		return Reservation{}, fmt.Errorf("failed to confirm reservation: %w", err)
	}
	rsv.Status = ReservationConfirmed
	rsv.UpdatedAt = now
	return rsv, nil
}

// Cancel moves a reservation to cancelled and frees its interval.
// Valid from pending or confirmed; a second cancel fails with
// ErrAlreadyCancelled.
func (m *Manager) Cancel(ctx context.Context, id ReservationID) error {
	rsv, err := m.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}

	mu := m.lockResource(rsv.ResourceID)
	mu.Lock()
	defer mu.Unlock()

	rsv, err = m.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if rsv.Status == ReservationCancelled {
		return &TransitionError{ReservationID: id, From: rsv.Status, To: ReservationCancelled}
	}

	// Store write and index removal happen under the resource lock, so a
	// concurrent conflict check never observes a half-cancelled state.
	if err := m.store.UpdateReservationStatus(ctx, id, ReservationCancelled, m.now()); err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}
	m.index.Remove(string(rsv.ResourceID), string(id))
	return nil
}

// Get returns a reservation by id.
func (m *Manager) Get(ctx context.Context, id ReservationID) (Reservation, error) {
	return m.store.GetReservation(ctx, id)
}
