package domain

import "fmt"

// Advertised range for each interactive weight.
const (
	MinWeight = 1
	MaxWeight = 100

	DefaultBirdRiskWeight  = 50
	DefaultWindSpeedWeight = 50
)

// CoefficientSet holds the weights applied by the composite scorer.
type CoefficientSet struct {
	BirdRiskWeight  int `json:"birdRiskWeight" yaml:"bird_risk_weight"`
	WindSpeedWeight int `json:"windSpeedWeight" yaml:"wind_speed_weight"`
}

// DefaultCoefficients returns the 50/50 weighting.
func DefaultCoefficients() CoefficientSet {
	return CoefficientSet{
		BirdRiskWeight:  DefaultBirdRiskWeight,
		WindSpeedWeight: DefaultWindSpeedWeight,
	}
}

// Validate checks both weights are within [MinWeight, MaxWeight].
func (c CoefficientSet) Validate() error {
	if c.BirdRiskWeight < MinWeight || c.BirdRiskWeight > MaxWeight {
		return fmt.Errorf("%w: birdRiskWeight %d outside [%d, %d]", ErrInvalidCoefficients, c.BirdRiskWeight, MinWeight, MaxWeight)
	}
	if c.WindSpeedWeight < MinWeight || c.WindSpeedWeight > MaxWeight {
		return fmt.Errorf("%w: windSpeedWeight %d outside [%d, %d]", ErrInvalidCoefficients, c.WindSpeedWeight, MinWeight, MaxWeight)
	}
	return nil
}

// CoefficientUpdate is a partial change to a CoefficientSet. Nil fields keep
// their current value.
type CoefficientUpdate struct {
	BirdRiskWeight  *int `json:"birdRiskWeight,omitempty"`
	WindSpeedWeight *int `json:"windSpeedWeight,omitempty"`
}

// Merge applies u on top of c and validates the result.
func (c CoefficientSet) Merge(u CoefficientUpdate) (CoefficientSet, error) {
	next := c
	if u.BirdRiskWeight != nil {
		next.BirdRiskWeight = *u.BirdRiskWeight
	}
	if u.WindSpeedWeight != nil {
		next.WindSpeedWeight = *u.WindSpeedWeight
	}
	if err := next.Validate(); err != nil {
		return c, err
	}
	return next, nil
}
