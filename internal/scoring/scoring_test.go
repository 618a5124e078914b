package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MackenzieBowal/windwatch/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"empty", nil, []float64{}},
		{"range", []float64{2, 4, 6}, []float64{0, 0.5, 1}},
		{"negative", []float64{-10, 0, 10}, []float64{0, 0.5, 1}},
		{"constant", []float64{3, 3, 3}, []float64{0, 0, 0}},
		{"all zero", []float64{0, 0}, []float64{0, 0}},
		{"single", []float64{7}, []float64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_DoesNotModifyInput(t *testing.T) {
	in := []float64{1, 5, 3}
	_ = Normalize(in)
	assert.Equal(t, []float64{1, 5, 3}, in)
}

func TestNormalize_BirdRiskExample(t *testing.T) {
	got := Normalize([]float64{0, 0, 10, 0})
	assert.Equal(t, []float64{0, 0, 1, 0}, got)
}

// The composite uses the configured weights rather than a fixed 1/100 split.
func TestComposite_UsesConfiguredWeights(t *testing.T) {
	bird := []float64{0, 1, 0.5}
	wind := []float64{1, 1, 0}

	got, err := Composite(bird, wind, domain.CoefficientSet{BirdRiskWeight: 100, WindSpeedWeight: 1})
	require.NoError(t, err)
	// raw = {1, -99, -50}
	assert.InDeltaSlice(t, []float64{1, 0, 49.0 / 100}, got, 1e-12)

	got, err = Composite(bird, wind, domain.CoefficientSet{BirdRiskWeight: 1, WindSpeedWeight: 100})
	require.NoError(t, err)
	// raw = {100, 99, -0.5}
	assert.InDeltaSlice(t, []float64{1, 99.5 / 100.5, 0}, got, 1e-12)
}

func TestComposite_DefaultWeights(t *testing.T) {
	got, err := Composite([]float64{0, 1}, []float64{1, 0}, domain.DefaultCoefficients())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, got)
}

func TestComposite_WithinUnitInterval(t *testing.T) {
	bird := []float64{0, 0.2, 0.7, 1, 0.4}
	wind := []float64{0.9, 0, 1, 0.3, 0.6}
	for _, bw := range []int{1, 17, 50, 100} {
		for _, ww := range []int{1, 33, 50, 100} {
			got, err := Composite(bird, wind, domain.CoefficientSet{BirdRiskWeight: bw, WindSpeedWeight: ww})
			require.NoError(t, err)
			for _, v := range got {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
	}
}

func TestComposite_Errors(t *testing.T) {
	_, err := Composite([]float64{0}, []float64{0, 1}, domain.DefaultCoefficients())
	require.Error(t, err)

	_, err = Composite([]float64{0}, []float64{1}, domain.CoefficientSet{BirdRiskWeight: 0, WindSpeedWeight: 50})
	require.ErrorIs(t, err, domain.ErrInvalidCoefficients)
}
