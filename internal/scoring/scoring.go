// Package scoring turns raw per-cell columns into normalized scores.
package scoring

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/MackenzieBowal/windwatch/internal/domain"
)

// Normalize rescales col to [0, 1] as (x - min) / (max - min). A constant
// column, including an all-zero one, maps to all zeros. The input is not
// modified.
func Normalize(col []float64) []float64 {
	out := make([]float64, len(col))
	if len(col) == 0 {
		return out
	}
	lo, hi := floats.Min(col), floats.Max(col)
	span := hi - lo
	if !(span > 0) {
		return out
	}
	for i, v := range col {
		out[i] = clamp01((v - lo) / span)
	}
	return out
}

// Composite weighs the normalized columns against each other as
// windSpeed*windSpeedWeight - birdRisk*birdRiskWeight and normalizes the
// result.
func Composite(birdRisk, windSpeed []float64, c domain.CoefficientSet) ([]float64, error) {
	if len(birdRisk) != len(windSpeed) {
		return nil, fmt.Errorf("column length mismatch: birdRisk %d, windSpeed %d", len(birdRisk), len(windSpeed))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	raw := make([]float64, len(windSpeed))
	copy(raw, windSpeed)
	floats.Scale(float64(c.WindSpeedWeight), raw)
	floats.AddScaled(raw, -float64(c.BirdRiskWeight), birdRisk)
	return Normalize(raw), nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
