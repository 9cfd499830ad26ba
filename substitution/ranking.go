/*
ranking.go - Candidate filtering and deterministic ordering

PURPOSE:
  Produces the ordered candidate list for a verified substitution
  request. Availability is a hard filter; survivors are scored and
  sorted descending by total, ties broken by historical rating then by
  candidate id. Same inputs, same order, every call - required for the
  sequential offer protocol and for testability.

  Scores are recomputed per request and never cached: availability
  changes between requests.

SEE ALSO:
  - scoring.go: Score computation
  - coordinator.go: Consumes the ranking to drive offers
*/
package substitution

import (
	"context"
	"fmt"
	"sort"

	"github.com/warp/reservation-engine/interval"
)

// =============================================================================
// COLLABORATOR INTERFACES - read-only lookups
// =============================================================================

// Directory is the read-only candidate directory.
type Directory interface {
	// Assignment returns the slot needing cover.
	Assignment(ctx context.Context, id AssignmentID) (Assignment, error)

	// Candidates returns candidates eligible for an assignment, before
	// availability filtering. Order is not significant.
	Candidates(ctx context.Context, id AssignmentID) ([]Candidate, error)
}

// Availability answers whether a candidate is free for a window.
type Availability interface {
	IsFree(ctx context.Context, id CandidateID, window interval.Interval) (bool, error)
}

// Calendar records commitments that make a candidate unavailable. The
// coordinator writes an entry when a candidate accepts an offer, so the
// hard availability filter sees the new commitment on the next ranking.
type Calendar interface {
	MarkBusy(id CandidateID, window interval.Interval, ref string)
}

// IndexAvailability reads candidate availability from an interval index
// keyed by candidate id - the same discipline as any other staffing
// resource. It is both the filter's read side and the coordinator's
// write side.
type IndexAvailability struct {
	Index *interval.Index
}

func (ia *IndexAvailability) IsFree(_ context.Context, id CandidateID, window interval.Interval) (bool, error) {
	return len(ia.Index.QueryOverlaps(string(id), window)) == 0, nil
}

func (ia *IndexAvailability) MarkBusy(id CandidateID, window interval.Interval, ref string) {
	ia.Index.Insert(string(id), window, ref)
}

// =============================================================================
// RANKER
// =============================================================================

type Ranker struct {
	Weights      Weights
	Directory    Directory
	Availability Availability
}

// Rank returns the scored candidate list for a request, best first.
// Returns ErrNoEligibleCandidates when the hard availability filter
// leaves nothing.
func (r *Ranker) Rank(ctx context.Context, req Request) ([]Score, error) {
	assignment, err := r.Directory.Assignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment %s: %w", req.AssignmentID, err)
	}
	candidates, err := r.Directory.Candidates(ctx, req.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates for %s: %w", req.AssignmentID, err)
	}

	window := req.Unavailable
	if window.IsZero() {
		window = assignment.Window
	}

	scores := make([]Score, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == req.OriginalAssignee {
			continue
		}
		free, err := r.Availability.IsFree(ctx, c.ID, window)
		if err != nil {
			return nil, fmt.Errorf("availability check for %s: %w", c.ID, err)
		}
		if !free {
			// Hard filter: excluded entirely, not penalized.
			continue
		}
		scores = append(scores, ScoreCandidate(r.Weights, assignment, c))
	}

	if len(scores) == 0 {
		return nil, fmt.Errorf("assignment %s: %w", req.AssignmentID, ErrNoEligibleCandidates)
	}

	// Stable descending sort; ties by historical rating then candidate id.
	sort.SliceStable(scores, func(i, j int) bool {
		if !scores[i].Total.Equal(scores[j].Total) {
			return scores[i].Total.GreaterThan(scores[j].Total)
		}
		if !scores[i].Performance.Equal(scores[j].Performance) {
			return scores[i].Performance.GreaterThan(scores[j].Performance)
		}
		return scores[i].CandidateID < scores[j].CandidateID
	})

	return scores, nil
}
