/*
Package interval provides the half-open time interval type and the
per-resource interval index used for conflict detection.

PURPOSE:
  Everything in the engine that books time books a half-open interval
  [Start, End). This package owns the overlap predicate and the lookup
  structure that answers "does this interval collide with anything
  already booked on this resource".

KEY CONCEPTS IN THIS FILE (interval.go):
  - Interval: A half-open time range [Start, End)
  - Overlap predicate: A overlaps B iff A.Start < B.End AND B.Start < A.End

HALF-OPEN SEMANTICS:
  Touching endpoints never overlap. A reservation ending at 17:00 does
  not conflict with one starting at 17:00. This is the single most
  load-bearing rule in the engine; see interval_test.go.

SEE ALSO:
  - index.go: Per-resource interval index built on this type
  - booking/conflict.go: Conflict detector consuming the index
*/
package interval

import (
	"fmt"
	"time"
)

// =============================================================================
// INTERVAL - Half-open time range [Start, End)
// =============================================================================

type Interval struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// IsValid reports whether the interval is non-empty (End strictly after Start).
func (iv Interval) IsValid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps implements the standard half-open overlap test.
// Touching endpoints (iv.End == other.Start) do NOT overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether t falls inside [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}
