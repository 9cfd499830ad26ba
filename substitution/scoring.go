/*
scoring.go - Multi-factor candidate scoring

PURPOSE:
  Computes the weighted composite score for one candidate:

    score = wA*availabilityFit + wS*skillOverlap
          + wD*(1 - normalizedDistance) + wP*historicalRating

  Weights are configuration inputs (see factory), not constants.
  Decimal arithmetic keeps ranking comparisons exact and reproducible;
  float summation order must never decide a tie.

COMPONENT RULES:
  - availabilityFit: hard filter. Candidates with a conflicting
    assignment in the unavailable interval are excluded entirely, not
    merely penalized. Scored candidates therefore always carry 1.0.
  - skillOverlap: |required ∩ candidate| / |required|. No required
    skills means full match.
  - normalizedDistance: distance / max radius, clamped to [0,1].
  - historicalRating: [0,1]; candidates with no history get a neutral
    0.5 so cold starts are neither favored nor buried.

SEE ALSO:
  - ranking.go: Filtering, sorting, tie-breaks
  - factory/profile.go: Weight configuration
*/
package substitution

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NeutralRating is the cold-start default for candidates with no
// performance history.
const NeutralRating = 0.5

// =============================================================================
// WEIGHTS - Configuration input
// =============================================================================

type Weights struct {
	Availability decimal.Decimal
	Skill        decimal.Decimal
	Distance     decimal.Decimal
	Performance  decimal.Decimal
}

// DefaultWeights favors availability and skill over geography and history.
func DefaultWeights() Weights {
	return Weights{
		Availability: decimal.NewFromFloat(0.40),
		Skill:        decimal.NewFromFloat(0.30),
		Distance:     decimal.NewFromFloat(0.15),
		Performance:  decimal.NewFromFloat(0.15),
	}
}

func (w Weights) Validate() error {
	for _, d := range []decimal.Decimal{w.Availability, w.Skill, w.Distance, w.Performance} {
		if d.IsNegative() {
			return fmt.Errorf("scoring weights must be non-negative")
		}
	}
	sum := w.Availability.Add(w.Skill).Add(w.Distance).Add(w.Performance)
	if sum.IsZero() {
		return fmt.Errorf("scoring weights must not all be zero")
	}
	return nil
}

// =============================================================================
// SCORING
// =============================================================================

// ScoreCandidate computes the composite score for an available
// candidate. Callers apply the availability hard filter first; this
// function assumes the candidate is free (availabilityFit = 1).
func ScoreCandidate(w Weights, a Assignment, c Candidate) Score {
	one := decimal.NewFromInt(1)

	skill := skillOverlap(a.RequiredSkills, c.Skills)
	dist := one.Sub(normalizedDistance(c.DistanceKm, a.MaxRadiusKm))
	perf := historicalRating(c)

	total := w.Availability.Mul(one).
		Add(w.Skill.Mul(skill)).
		Add(w.Distance.Mul(dist)).
		Add(w.Performance.Mul(perf))

	return Score{
		CandidateID:  c.ID,
		Total:        total,
		Availability: one,
		Skill:        skill,
		Distance:     dist,
		Performance:  perf,
	}
}

func skillOverlap(required, have []string) decimal.Decimal {
	if len(required) == 0 {
		return decimal.NewFromInt(1)
	}
	set := make(map[string]bool, len(have))
	for _, s := range have {
		set[s] = true
	}
	matched := 0
	for _, s := range required {
		if set[s] {
			matched++
		}
	}
	return decimal.NewFromInt(int64(matched)).Div(decimal.NewFromInt(int64(len(required))))
}

func normalizedDistance(distanceKm, maxRadiusKm float64) decimal.Decimal {
	if maxRadiusKm <= 0 {
		// No radius configured: distance carries no signal.
		return decimal.Zero
	}
	ratio := distanceKm / maxRadiusKm
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return decimal.NewFromFloat(ratio)
}

func historicalRating(c Candidate) decimal.Decimal {
	if c.Rating == nil {
		return decimal.NewFromFloat(NeutralRating)
	}
	r := *c.Rating
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return decimal.NewFromFloat(r)
}
