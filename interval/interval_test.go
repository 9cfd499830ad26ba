package interval_test

import (
	"testing"
	"time"

	"github.com/warp/reservation-engine/interval"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var base = time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)

// iv builds an interval offset from base by whole hours.
func iv(startHour, endHour int) interval.Interval {
	return interval.New(
		base.Add(time.Duration(startHour)*time.Hour),
		base.Add(time.Duration(endHour)*time.Hour),
	)
}

// =============================================================================
// VALIDITY
// =============================================================================

func TestInterval_IsValid(t *testing.T) {
	// GIVEN: Intervals with end after, equal to, and before start
	// THEN: Only end-after-start is valid

	if !iv(0, 2).IsValid() {
		t.Error("expected [0,2) to be valid")
	}
	if iv(2, 2).IsValid() {
		t.Error("expected zero-length interval to be invalid")
	}
	if iv(3, 1).IsValid() {
		t.Error("expected reversed interval to be invalid")
	}
}

// =============================================================================
// OVERLAP SEMANTICS (half-open)
// =============================================================================

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b interval.Interval
		want bool
	}{
		{"partial overlap", iv(0, 2), iv(1, 3), true},
		{"containment", iv(0, 4), iv(1, 2), true},
		{"identical", iv(0, 2), iv(0, 2), true},
		{"disjoint", iv(0, 1), iv(2, 3), false},
		{"touching endpoints", iv(0, 2), iv(2, 4), false},
		{"touching endpoints reversed", iv(2, 4), iv(0, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestInterval_Contains(t *testing.T) {
	// GIVEN: Interval [0,2)
	// THEN: Start inclusive, end exclusive

	window := iv(0, 2)
	if !window.Contains(base) {
		t.Error("expected start to be contained")
	}
	if !window.Contains(base.Add(time.Hour)) {
		t.Error("expected midpoint to be contained")
	}
	if window.Contains(base.Add(2 * time.Hour)) {
		t.Error("expected end to be excluded")
	}
}

func TestInterval_Duration(t *testing.T) {
	if got := iv(0, 3).Duration(); got != 3*time.Hour {
		t.Errorf("expected 3h, got %v", got)
	}
}

func TestInterval_IsZero(t *testing.T) {
	var zero interval.Interval
	if !zero.IsZero() {
		t.Error("expected zero value to report IsZero")
	}
	if iv(0, 1).IsZero() {
		t.Error("expected populated interval to not report IsZero")
	}
}
