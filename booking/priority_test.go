package booking_test

import (
	"testing"

	"github.com/warp/reservation-engine/booking"
)

func TestResolve_NoConflictAlwaysAdmits(t *testing.T) {
	report := booking.ConflictReport{}

	for _, p := range []booking.Priority{
		booking.PriorityLow, booking.PriorityNormal, booking.PriorityHigh, booking.PriorityUrgent,
	} {
		d := booking.Resolve(report, p)
		if !d.Admit || d.Reason != booking.ReasonNoConflict {
			t.Errorf("priority %s: expected admit/no_conflict, got %+v", p, d)
		}
	}
}

func TestResolve_ConflictAdmitsOnlyUrgent(t *testing.T) {
	// GIVEN: A report with one conflicting reservation
	// THEN: low/normal/high rejected, urgent admitted with urgent_override

	report := booking.ConflictReport{
		Conflicts: []booking.Reservation{{ID: "existing"}},
	}

	for _, p := range []booking.Priority{booking.PriorityLow, booking.PriorityNormal, booking.PriorityHigh} {
		d := booking.Resolve(report, p)
		if d.Admit || d.Reason != booking.ReasonConflictExists {
			t.Errorf("priority %s: expected reject/conflict_exists, got %+v", p, d)
		}
	}

	d := booking.Resolve(report, booking.PriorityUrgent)
	if !d.Admit || d.Reason != booking.ReasonUrgentOverride {
		t.Errorf("urgent: expected admit/urgent_override, got %+v", d)
	}
}

func TestResolve_InUseCountsAsConflict(t *testing.T) {
	// GIVEN: No overlapping reservations but the resource is checked out
	// THEN: Normal priority is rejected; urgent still overrides

	report := booking.ConflictReport{InUseNow: true}

	if d := booking.Resolve(report, booking.PriorityNormal); d.Admit {
		t.Errorf("expected in-use resource to reject normal priority, got %+v", d)
	}
	if d := booking.Resolve(report, booking.PriorityUrgent); !d.Admit {
		t.Errorf("expected urgent to override in-use conflict, got %+v", d)
	}
}
