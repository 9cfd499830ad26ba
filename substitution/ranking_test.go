package substitution_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/warp/reservation-engine/interval"
	"github.com/warp/reservation-engine/store/memory"
	"github.com/warp/reservation-engine/substitution"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var shiftStart = time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC)

func shiftWindow() interval.Interval {
	return interval.New(shiftStart, shiftStart.Add(4*time.Hour))
}

// newTestRanker seeds one assignment and its candidate pool.
func newTestRanker(t *testing.T, candidates ...substitution.Candidate) (*substitution.Ranker, *interval.Index) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.SaveAssignment(ctx, substitution.Assignment{
		ID:             "shift-1",
		Label:          "Saturday morning shift",
		RequiredSkills: []string{"forklift"},
		MaxRadiusKm:    20,
		Window:         shiftWindow(),
	}))
	for _, c := range candidates {
		require.NoError(t, store.SaveCandidate(ctx, "shift-1", c))
	}

	busyIndex := interval.NewIndex()
	return &substitution.Ranker{
		Weights:      substitution.DefaultWeights(),
		Directory:    store,
		Availability: &substitution.IndexAvailability{Index: busyIndex},
	}, busyIndex
}

func rankRequest() substitution.Request {
	return substitution.Request{
		ID:               "req-1",
		AssignmentID:     "shift-1",
		OriginalAssignee: "original",
		Unavailable:      shiftWindow(),
	}
}

// =============================================================================
// ORDERING
// =============================================================================

func TestRank_OrdersByTotalScore(t *testing.T) {
	// GIVEN: A strong candidate and a weak one
	// THEN: Strong first

	ranker, _ := newTestRanker(t,
		substitution.Candidate{ID: "strong", Skills: []string{"forklift"}, DistanceKm: 2, Rating: rating(0.9)},
		substitution.Candidate{ID: "weak", Skills: nil, DistanceKm: 19, Rating: rating(0.2)},
	)

	scores, err := ranker.Rank(context.Background(), rankRequest())
	require.NoError(t, err)
	require.Len(t, scores, 2)
	require.Equal(t, substitution.CandidateID("strong"), scores[0].CandidateID)
	require.Equal(t, substitution.CandidateID("weak"), scores[1].CandidateID)
}

func TestRank_TieBrokenByRatingThenID(t *testing.T) {
	// GIVEN: Three candidates identical except for rating; two tied on
	//        everything including rating
	// THEN: Higher rating wins the first tie, candidate id the second

	same := func(id string, r *float64) substitution.Candidate {
		return substitution.Candidate{ID: substitution.CandidateID(id), Skills: []string{"forklift"}, DistanceKm: 5, Rating: r}
	}
	ranker, _ := newTestRanker(t,
		same("bbb", rating(0.6)),
		same("aaa", rating(0.6)),
		same("zzz", rating(0.9)),
	)

	// Equalize totals: weight performance at zero so rating only breaks ties.
	w := substitution.DefaultWeights()
	w.Performance = dec(0)
	ranker.Weights = w

	scores, err := ranker.Rank(context.Background(), rankRequest())
	require.NoError(t, err)
	require.Len(t, scores, 3)

	// All totals equal; zzz leads on rating, then aaa before bbb by id.
	require.Equal(t, substitution.CandidateID("zzz"), scores[0].CandidateID)
	require.Equal(t, substitution.CandidateID("aaa"), scores[1].CandidateID)
	require.Equal(t, substitution.CandidateID("bbb"), scores[2].CandidateID)
}

func TestRank_Deterministic(t *testing.T) {
	// Same inputs, same order, every call.
	ranker, _ := newTestRanker(t,
		substitution.Candidate{ID: "c1", Skills: []string{"forklift"}, DistanceKm: 3, Rating: rating(0.7)},
		substitution.Candidate{ID: "c2", Skills: []string{"forklift"}, DistanceKm: 8, Rating: rating(0.7)},
		substitution.Candidate{ID: "c3", DistanceKm: 1, Rating: rating(0.95)},
	)

	first, err := ranker.Rank(context.Background(), rankRequest())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := ranker.Rank(context.Background(), rankRequest())
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

// =============================================================================
// FILTERING
// =============================================================================

func TestRank_BusyCandidatesExcluded(t *testing.T) {
	// GIVEN: The best candidate has a conflicting booking in the window
	// THEN: Excluded entirely, not merely ranked lower

	ranker, busy := newTestRanker(t,
		substitution.Candidate{ID: "best", Skills: []string{"forklift"}, DistanceKm: 1, Rating: rating(1.0)},
		substitution.Candidate{ID: "other", Skills: []string{"forklift"}, DistanceKm: 10, Rating: rating(0.5)},
	)
	busy.Insert("best", interval.New(shiftStart.Add(time.Hour), shiftStart.Add(2*time.Hour)), "existing-shift")

	scores, err := ranker.Rank(context.Background(), rankRequest())
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Equal(t, substitution.CandidateID("other"), scores[0].CandidateID)
}

func TestRank_TouchingBookingDoesNotExclude(t *testing.T) {
	// A booking ending exactly when the shift starts is no conflict.
	ranker, busy := newTestRanker(t,
		substitution.Candidate{ID: "c1", Skills: []string{"forklift"}},
	)
	busy.Insert("c1", interval.New(shiftStart.Add(-2*time.Hour), shiftStart), "earlier-shift")

	scores, err := ranker.Rank(context.Background(), rankRequest())
	require.NoError(t, err)
	require.Len(t, scores, 1)
}

func TestRank_OriginalAssigneeSkipped(t *testing.T) {
	ranker, _ := newTestRanker(t,
		substitution.Candidate{ID: "original", Skills: []string{"forklift"}, Rating: rating(1.0)},
		substitution.Candidate{ID: "sub", Skills: []string{"forklift"}},
	)

	scores, err := ranker.Rank(context.Background(), rankRequest())
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Equal(t, substitution.CandidateID("sub"), scores[0].CandidateID)
}

func TestRank_NoEligibleCandidates(t *testing.T) {
	// GIVEN: Every candidate busy for the window
	// THEN: ErrNoEligibleCandidates

	ranker, busy := newTestRanker(t,
		substitution.Candidate{ID: "c1", Skills: []string{"forklift"}},
	)
	busy.Insert("c1", shiftWindow(), "existing")

	_, err := ranker.Rank(context.Background(), rankRequest())
	require.ErrorIs(t, err, substitution.ErrNoEligibleCandidates)
}

func TestRank_FallsBackToAssignmentWindow(t *testing.T) {
	// GIVEN: A request with no explicit unavailable interval
	// THEN: Availability is checked against the assignment's own window

	ranker, busy := newTestRanker(t,
		substitution.Candidate{ID: "c1", Skills: []string{"forklift"}},
	)
	busy.Insert("c1", shiftWindow(), "existing")

	req := rankRequest()
	req.Unavailable = interval.Interval{}

	_, err := ranker.Rank(context.Background(), req)
	require.ErrorIs(t, err, substitution.ErrNoEligibleCandidates)
}
