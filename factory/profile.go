/*
Package factory provides JSON to Go scoring-profile conversion.

PURPOSE:
  Converts JSON scoring profiles into substitution.Weights and protocol
  settings. This enables tuning without code changes - operations staff
  can adjust how replacements are ranked, and how long candidates get to
  respond, from a config file.

JSON SCHEMA:
  {
    "name": "default",
    "weights": {
      "availability": 0.4,
      "skill": 0.3,
      "distance": 0.15,
      "performance": 0.15
    },
    "offer_window_minutes": 30
  }

KEY FEATURES:
  - Missing weights fall back to the engine defaults
  - Validates weights (non-negative, not all zero)
  - Validates the offer window (positive)

USAGE:
  profile, err := factory.ParseProfile(jsonString)
  ranker := &substitution.Ranker{Weights: profile.Weights, ...}

SEE ALSO:
  - substitution/scoring.go: Weight semantics
  - config/config.go: Where the profile path comes from
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/reservation-engine/substitution"
)

const defaultOfferWindow = 30 * time.Minute

// Profile is the parsed scoring configuration.
type Profile struct {
	Name        string
	Weights     substitution.Weights
	OfferWindow time.Duration
}

type profileJSON struct {
	Name    string `json:"name"`
	Weights *struct {
		Availability *float64 `json:"availability"`
		Skill        *float64 `json:"skill"`
		Distance     *float64 `json:"distance"`
		Performance  *float64 `json:"performance"`
	} `json:"weights"`
	OfferWindowMinutes *int `json:"offer_window_minutes"`
}

// DefaultProfile returns the built-in configuration.
func DefaultProfile() *Profile {
	return &Profile{
		Name:        "default",
		Weights:     substitution.DefaultWeights(),
		OfferWindow: defaultOfferWindow,
	}
}

// ParseProfile parses a JSON scoring profile, applying defaults for
// missing fields.
func ParseProfile(jsonStr string) (*Profile, error) {
	var pj profileJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("invalid profile JSON: %w", err)
	}

	p := DefaultProfile()
	if pj.Name != "" {
		p.Name = pj.Name
	}
	if pj.Weights != nil {
		if pj.Weights.Availability != nil {
			p.Weights.Availability = decimal.NewFromFloat(*pj.Weights.Availability)
		}
		if pj.Weights.Skill != nil {
			p.Weights.Skill = decimal.NewFromFloat(*pj.Weights.Skill)
		}
		if pj.Weights.Distance != nil {
			p.Weights.Distance = decimal.NewFromFloat(*pj.Weights.Distance)
		}
		if pj.Weights.Performance != nil {
			p.Weights.Performance = decimal.NewFromFloat(*pj.Weights.Performance)
		}
	}
	if pj.OfferWindowMinutes != nil {
		if *pj.OfferWindowMinutes <= 0 {
			return nil, fmt.Errorf("offer_window_minutes must be positive, got %d", *pj.OfferWindowMinutes)
		}
		p.OfferWindow = time.Duration(*pj.OfferWindowMinutes) * time.Minute
	}

	if err := p.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return p, nil
}

// LoadProfile reads and parses a profile file. An empty path returns
// the default profile.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	return ParseProfile(string(data))
}
