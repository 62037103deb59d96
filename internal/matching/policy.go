// internal/matching/policy.go
package matching

import (
	"errors"
	"fmt"
	"math"
)

// Policy holds the tunable constants of the scoring engine.
type Policy struct {
	// RiskPenalty is subtracted from the skill percentage when the candidate
	// declared risk levels and none of them is the leg's effective level.
	RiskPenalty int
	// ProximityDecayKm is the distance that costs one proximity point.
	ProximityDecayKm float64
	// NeutralProximity is returned when a waypoint or preference is missing.
	NeutralProximity float64

	SkillWeight     float64
	DepartureWeight float64
	ArrivalWeight   float64
}

// DefaultPolicy returns the production scoring constants.
func DefaultPolicy() Policy {
	return Policy{
		RiskPenalty:      20,
		ProximityDecayKm: 50,
		NeutralProximity: 50,
		SkillWeight:      0.5,
		DepartureWeight:  0.25,
		ArrivalWeight:    0.25,
	}
}

var ErrInvalidPolicy = errors.New("invalid matching policy")

func (p Policy) Validate() error {
	if p.RiskPenalty < 0 || p.RiskPenalty > 100 {
		return fmt.Errorf("%w: risk penalty %d outside [0,100]", ErrInvalidPolicy, p.RiskPenalty)
	}
	if p.ProximityDecayKm <= 0 {
		return fmt.Errorf("%w: proximity decay must be positive", ErrInvalidPolicy)
	}
	if p.NeutralProximity < 0 || p.NeutralProximity > 100 {
		return fmt.Errorf("%w: neutral proximity %.2f outside [0,100]", ErrInvalidPolicy, p.NeutralProximity)
	}
	if p.SkillWeight < 0 || p.DepartureWeight < 0 || p.ArrivalWeight < 0 {
		return fmt.Errorf("%w: weights must not be negative", ErrInvalidPolicy)
	}
	if sum := p.SkillWeight + p.DepartureWeight + p.ArrivalWeight; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %.4f, want 1", ErrInvalidPolicy, sum)
	}
	return nil
}

// Matcher scores candidates against legs under a fixed Policy.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	policy Policy
}

func NewMatcher(policy Policy) (*Matcher, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{policy: policy}, nil
}

func (m *Matcher) Policy() Policy {
	return m.policy
}

var defaultMatcher = &Matcher{policy: DefaultPolicy()}

// Default returns a Matcher using DefaultPolicy.
func Default() *Matcher {
	return defaultMatcher
}
