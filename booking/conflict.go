/*
conflict.go - Conflict detection over the interval index

PURPOSE:
  Pure read-only layer producing a ConflictReport for a proposed
  interval. Two sources of conflict:
  1. Overlapping active reservations (from the interval index)
  2. The resource being checked out right now (status in_use), even
     with no explicit booking for the period - this bridges explicit
     bookings and ad-hoc checkout.

SIDE EFFECTS: none. Conflicts are computed on every admission check,
never stored.

SEE ALSO:
  - interval/index.go: Overlap queries
  - priority.go: What happens with the report
*/
package booking

import (
	"context"
	"fmt"

	"github.com/warp/reservation-engine/interval"
)

// =============================================================================
// CONFLICT REPORT
// =============================================================================

type ConflictReport struct {
	ResourceID ResourceID
	Proposed   interval.Interval
	Conflicts  []Reservation
	InUseNow   bool
}

func (r ConflictReport) HasConflict() bool {
	return len(r.Conflicts) > 0 || r.InUseNow
}

// =============================================================================
// DETECTOR
// =============================================================================

type Detector struct {
	Index *interval.Index
	Store Store
}

// Detect returns all active reservations on the resource whose interval
// overlaps the proposed one, plus the point-in-time status check.
func (d *Detector) Detect(ctx context.Context, resourceID ResourceID, proposed interval.Interval) (ConflictReport, error) {
	report := ConflictReport{ResourceID: resourceID, Proposed: proposed}

	res, err := d.Store.GetResource(ctx, resourceID)
	if err != nil {
		return report, err
	}
	report.InUseNow = res.Status == ResourceInUse

	entries := d.Index.QueryOverlaps(string(resourceID), proposed)
	for _, e := range entries {
		rsv, err := d.Store.GetReservation(ctx, ReservationID(e.ReservationID))
		if err != nil {
			return report, fmt.Errorf("failed to load conflicting reservation %s: %w", e.ReservationID, err)
		}
		report.Conflicts = append(report.Conflicts, rsv)
	}
	return report, nil
}
