package substitution_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/reservation-engine/substitution"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func rating(v float64) *float64 { return &v }

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

var testAssignment = substitution.Assignment{
	ID:             "shift-1",
	Label:          "Saturday morning shift",
	RequiredSkills: []string{"forklift", "first-aid"},
	MaxRadiusKm:    20,
}

// =============================================================================
// COMPOSITE SCORE
// =============================================================================

func TestScoreCandidate_FullMarks(t *testing.T) {
	// GIVEN: A candidate with every skill, zero distance, perfect rating
	// THEN: Total equals the sum of all weights

	c := substitution.Candidate{
		ID:         "c1",
		Skills:     []string{"forklift", "first-aid"},
		DistanceKm: 0,
		Rating:     rating(1.0),
	}
	s := substitution.ScoreCandidate(substitution.DefaultWeights(), testAssignment, c)

	require.True(t, s.Total.Equal(dec(1.0)), "expected 1.0, got %s", s.Total)
	require.True(t, s.Availability.Equal(dec(1)))
	require.True(t, s.Skill.Equal(dec(1)))
}

func TestScoreCandidate_PartialSkillOverlap(t *testing.T) {
	// GIVEN: One of two required skills
	// THEN: Skill component is 0.5

	c := substitution.Candidate{ID: "c1", Skills: []string{"forklift", "cooking"}}
	s := substitution.ScoreCandidate(substitution.DefaultWeights(), testAssignment, c)

	require.True(t, s.Skill.Equal(dec(0.5)), "expected skill 0.5, got %s", s.Skill)
}

func TestScoreCandidate_NoRequiredSkillsIsFullMatch(t *testing.T) {
	a := substitution.Assignment{ID: "shift-2", MaxRadiusKm: 10}
	c := substitution.Candidate{ID: "c1"}

	s := substitution.ScoreCandidate(substitution.DefaultWeights(), a, c)
	require.True(t, s.Skill.Equal(dec(1)), "no required skills should score full, got %s", s.Skill)
}

func TestScoreCandidate_DistanceNormalization(t *testing.T) {
	w := substitution.DefaultWeights()

	// Half the radius away: distance component 1 - 0.5.
	near := substitution.ScoreCandidate(w, testAssignment, substitution.Candidate{ID: "near", DistanceKm: 10})
	require.True(t, near.Distance.Equal(dec(0.5)), "got %s", near.Distance)

	// Beyond the radius clamps to zero, never negative.
	far := substitution.ScoreCandidate(w, testAssignment, substitution.Candidate{ID: "far", DistanceKm: 80})
	require.True(t, far.Distance.Equal(dec(0)), "got %s", far.Distance)
}

func TestScoreCandidate_NoRadiusCarriesNoDistanceSignal(t *testing.T) {
	a := substitution.Assignment{ID: "shift-3", MaxRadiusKm: 0}

	s := substitution.ScoreCandidate(substitution.DefaultWeights(), a, substitution.Candidate{ID: "c1", DistanceKm: 500})
	require.True(t, s.Distance.Equal(dec(1)), "distance should not penalize without a radius, got %s", s.Distance)
}

func TestScoreCandidate_ColdStartRating(t *testing.T) {
	// GIVEN: A candidate with no history
	// THEN: Neutral 0.5, neither favored nor buried

	s := substitution.ScoreCandidate(substitution.DefaultWeights(), testAssignment, substitution.Candidate{ID: "new"})
	require.True(t, s.Performance.Equal(dec(substitution.NeutralRating)), "got %s", s.Performance)
}

func TestScoreCandidate_RatingClamped(t *testing.T) {
	w := substitution.DefaultWeights()

	high := substitution.ScoreCandidate(w, testAssignment, substitution.Candidate{ID: "h", Rating: rating(3.0)})
	require.True(t, high.Performance.Equal(dec(1)), "got %s", high.Performance)

	low := substitution.ScoreCandidate(w, testAssignment, substitution.Candidate{ID: "l", Rating: rating(-1.0)})
	require.True(t, low.Performance.Equal(dec(0)), "got %s", low.Performance)
}

// =============================================================================
// WEIGHTS VALIDATION
// =============================================================================

func TestWeights_Validate(t *testing.T) {
	require.NoError(t, substitution.DefaultWeights().Validate())

	negative := substitution.Weights{Availability: dec(-0.1), Skill: dec(0.5)}
	require.Error(t, negative.Validate())

	var zero substitution.Weights
	require.Error(t, zero.Validate())
}
