package geo

import (
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MackenzieBowal/windwatch/internal/domain"
)

const earthRadius = 6371008.8

func TestBuildFootprints_Radius(t *testing.T) {
	p, err := ProjectionFor(12, false)
	require.NoError(t, err)

	obs := []domain.Observation{{Lat: 49.5, Lon: -111.5, Magnitude: 3}}
	fps, err := BuildFootprints(p, obs, DefaultBufferRadius)
	require.NoError(t, err)
	require.Len(t, fps, 1)

	fp := fps[0]
	assert.Equal(t, 3.0, fp.Weight)
	ring := fp.Polygon[0]
	require.Len(t, ring, circleSegments+1)
	assert.Equal(t, ring[0], ring[len(ring)-1])

	center := s2.LatLngFromDegrees(49.5, -111.5)
	for _, v := range ring {
		d := center.Distance(s2.LatLngFromDegrees(v.Y, v.X)).Radians() * earthRadius
		assert.InEpsilon(t, DefaultBufferRadius, d, 0.01)
	}
}

func TestBuildFootprints_PreservesOrder(t *testing.T) {
	p, err := ProjectionFor(12, false)
	require.NoError(t, err)

	obs := []domain.Observation{
		{Lat: 49.1, Lon: -111.9, Magnitude: 1},
		{Lat: 49.9, Lon: -111.1, Magnitude: 7},
	}
	fps, err := BuildFootprints(p, obs, 500)
	require.NoError(t, err)
	require.Len(t, fps, 2)
	assert.Equal(t, 1.0, fps[0].Weight)
	assert.Equal(t, 7.0, fps[1].Weight)
	assert.Less(t, fps[0].Center.Y, fps[1].Center.Y)
}

func TestBuildFootprints_InvalidRadius(t *testing.T) {
	p, err := ProjectionFor(12, false)
	require.NoError(t, err)

	_, err = BuildFootprints(p, nil, 0)
	require.ErrorIs(t, err, domain.ErrInvalidGridConfiguration)
}

func TestCircle(t *testing.T) {
	c := Circle(geomPoint(100, 200), 10)
	ring := c[0]
	require.Len(t, ring, circleSegments+1)
	assert.InDelta(t, 110.0, ring[0].X, 1e-9)
	assert.InDelta(t, 200.0, ring[0].Y, 1e-9)
}

func TestProjectSamples(t *testing.T) {
	p, err := ProjectionFor(12, false)
	require.NoError(t, err)

	ss, err := ProjectSamples(p, []domain.Observation{{Lat: 49.5, Lon: -111.0, Magnitude: 6.2}})
	require.NoError(t, err)
	require.Len(t, ss, 1)
	assert.Equal(t, 6.2, ss[0].Value)
	assert.Equal(t, -111.0, ss[0].Point.X)
	assert.Equal(t, 49.5, ss[0].Point.Y)
	assert.InDelta(t, 500000.0, ss[0].Projected.X, 1e-3)
}
