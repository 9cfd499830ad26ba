/*
index.go - Per-resource interval index

PURPOSE:
  Maintains, per resource, the set of intervals occupied by active
  reservations and answers overlap queries. This is a pure lookup
  structure: it enforces no policy and owns no lifecycle. The booking
  manager is the only writer (per-resource serialized); the ranking
  engine reads it for availability checks.

DATA STRUCTURE:
  A map of resource id -> slice of entries kept sorted by interval
  start. Inserts use binary search (same idiom as the in-memory store),
  and overlap queries binary-search the scan upper bound so lookups
  stay sub-linear as per-resource entry counts grow.

CONCURRENCY:
  RWMutex-guarded. Writers go through the booking manager's
  per-resource locks; readers (conflict detection, availability
  checks) may run concurrently.

SEE ALSO:
  - booking/manager.go: Single-writer discipline per resource
  - substitution/ranking.go: Availability reads
*/
package interval

import (
	"sort"
	"sync"
)

// =============================================================================
// INDEX - resource id -> sorted occupied intervals
// =============================================================================

// Entry is a weak reference to a reservation's occupied interval.
// The index never owns reservation lifecycle.
type Entry struct {
	ReservationID string
	Interval      Interval
}

type Index struct {
	mu         sync.RWMutex
	byResource map[string][]Entry
}

func NewIndex() *Index {
	return &Index{byResource: make(map[string][]Entry)}
}

// Insert adds an occupied interval for a resource.
// No constraint is enforced here; admission policy lives upstream.
func (ix *Index) Insert(resourceID string, iv Interval, reservationID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries := ix.byResource[resourceID]

	// Binary search for insertion point, keep sorted by Start.
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Interval.Start.After(iv.Start)
	})

	entries = append(entries, Entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = Entry{ReservationID: reservationID, Interval: iv}
	ix.byResource[resourceID] = entries
}

// Remove drops the entry for a reservation. Returns false if the
// reservation was not indexed for this resource.
func (ix *Index) Remove(resourceID, reservationID string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries := ix.byResource[resourceID]
	for i, e := range entries {
		if e.ReservationID == reservationID {
			ix.byResource[resourceID] = append(entries[:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

// QueryOverlaps returns all entries whose interval overlaps iv, in
// start order. Touching endpoints do not count as overlap.
func (ix *Index) QueryOverlaps(resourceID string, iv Interval) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entries := ix.byResource[resourceID]

	// Entries are sorted by Start; anything starting at or after iv.End
	// cannot overlap, so bound the scan there.
	hi := sort.Search(len(entries), func(i int) bool {
		return !entries[i].Interval.Start.Before(iv.End)
	})

	var result []Entry
	for _, e := range entries[:hi] {
		if e.Interval.Overlaps(iv) {
			result = append(result, e)
		}
	}
	return result
}

// Count returns the number of indexed intervals for a resource.
func (ix *Index) Count(resourceID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byResource[resourceID])
}
