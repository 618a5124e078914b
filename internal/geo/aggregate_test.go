package geo

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MackenzieBowal/windwatch/internal/domain"
)

func geomPoint(x, y float64) geom.Point { return geom.Point{X: x, Y: y} }

func testGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := BuildGrid(testFrame(t), 50000, 0)
	require.NoError(t, err)
	return g
}

func cellCenter(c Cell) geom.Point {
	r := c.Projected[0]
	return geomPoint((r[0].X+r[2].X)/2, (r[0].Y+r[2].Y)/2)
}

func TestAggregate_IntersectsSum(t *testing.T) {
	g := testGrid(t)
	c := cellCenter(g.Cells[2])
	feats := []Feature{
		{Geometry: Circle(geomPoint(c.X-100, c.Y), 1000), Weight: 5},
		{Geometry: Circle(geomPoint(c.X+100, c.Y), 1000), Weight: 5},
	}

	got, err := Aggregate(g, feats, BirdRiskJoin)
	require.NoError(t, err)
	want := []float64{0, 0, 10, 0, 0, 0}
	assert.Equal(t, want, got)
}

func TestAggregate_IntersectsCountsEveryTouchedCell(t *testing.T) {
	g := testGrid(t)
	// Centered on the corner shared by cells 0, 1, 3 and 4.
	corner := g.Cells[0].Projected[0][2]
	feats := []Feature{{Geometry: Circle(corner, 1000), Weight: 2}}

	got, err := Aggregate(g, feats, BirdRiskJoin)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 0, 2, 2, 0}, got)
}

func TestAggregate_NoFeaturesZeroFill(t *testing.T) {
	g := testGrid(t)
	got, err := Aggregate(g, nil, BirdRiskJoin)
	require.NoError(t, err)
	assert.Equal(t, make([]float64, g.Len()), got)
}

func TestAggregate_ContainsMeanWithMinFallback(t *testing.T) {
	g := testGrid(t)
	c0, c1 := cellCenter(g.Cells[0]), cellCenter(g.Cells[1])
	feats := []Feature{
		{Geometry: c0, Weight: 4},
		{Geometry: geomPoint(c0.X+10, c0.Y), Weight: 6},
		{Geometry: c1, Weight: 8},
	}

	got, err := Aggregate(g, feats, WindSpeedJoin)
	require.NoError(t, err)
	// Cell 0 mean is 5, cell 1 is 8, the rest fall back to the smaller mean.
	assert.Equal(t, []float64{5, 8, 5, 5, 5, 5}, got)
}

func TestAggregate_ContainsExcludesSharedEdge(t *testing.T) {
	g := testGrid(t)
	r := g.Cells[0].Projected[0]
	onEdge := geomPoint(r[1].X, (r[1].Y+r[2].Y)/2)

	_, err := Aggregate(g, []Feature{{Geometry: onEdge, Weight: 1}}, WindSpeedJoin)
	require.ErrorIs(t, err, domain.ErrInsufficientObservationCoverage)
}

func TestAggregate_NoSamplesInsufficientCoverage(t *testing.T) {
	g := testGrid(t)
	_, err := Aggregate(g, nil, WindSpeedJoin)
	require.ErrorIs(t, err, domain.ErrInsufficientObservationCoverage)
}

func TestAggregate_DoesNotMutateInputs(t *testing.T) {
	g := testGrid(t)
	mk := func() []Feature {
		return []Feature{
			{Geometry: Circle(cellCenter(g.Cells[3]), 1000), Weight: 1},
			{Geometry: cellCenter(g.Cells[5]), Weight: 2},
		}
	}
	feats := mk()
	cellsBefore := append([]Cell(nil), g.Cells...)

	first, err := Aggregate(g, feats, BirdRiskJoin)
	require.NoError(t, err)
	second, err := Aggregate(g, feats, BirdRiskJoin)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, mk(), feats)
	if diff := cmp.Diff(cellsBefore, g.Cells); diff != "" {
		t.Errorf("grid cells mutated (-before +after):\n%s", diff)
	}
}

func TestAggregate_UnsupportedGeometry(t *testing.T) {
	g := testGrid(t)
	inside := cellCenter(g.Cells[0])
	beyond := geomPoint(g.Frame.Bounds.Max.X+1e6, g.Frame.Bounds.Max.Y+1e6)

	tests := []struct {
		name string
		geom geom.Geom
	}{
		{"line outside grid", geom.LineString{beyond, geomPoint(beyond.X+1, beyond.Y+1)}},
		{"line inside grid", geom.LineString{inside, geomPoint(inside.X+1, inside.Y+1)}},
		{"missing geometry", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feats := []Feature{{Geometry: inside, Weight: 1}, {Geometry: tt.geom, Weight: 1}}
			_, err := Aggregate(g, feats, BirdRiskJoin)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "feature 1")
		})
	}
}

func TestFootprintAndSampleFeatures(t *testing.T) {
	fps := []Footprint{{Projected: Circle(geomPoint(0, 0), 1), Weight: 3}}
	ss := []WindSample{{Projected: geomPoint(1, 2), Value: 4}}

	ff := FootprintFeatures(fps)
	require.Len(t, ff, 1)
	assert.Equal(t, 3.0, ff[0].Weight)

	sf := SampleFeatures(ss)
	require.Len(t, sf, 1)
	assert.Equal(t, geomPoint(1, 2), sf[0].Geometry)
	assert.Equal(t, 4.0, sf[0].Weight)
}

func TestRingsIntersect(t *testing.T) {
	sq := func(x, y, s float64) geom.Path {
		return geom.Path{{X: x, Y: y}, {X: x + s, Y: y}, {X: x + s, Y: y + s}, {X: x, Y: y + s}, {X: x, Y: y}}
	}
	assert.True(t, ringsIntersect(sq(0, 0, 2), sq(1, 1, 2)), "overlap")
	assert.True(t, ringsIntersect(sq(0, 0, 10), sq(2, 2, 1)), "containment")
	assert.True(t, ringsIntersect(sq(0, 0, 1), sq(1, 0, 1)), "shared edge")
	assert.False(t, ringsIntersect(sq(0, 0, 1), sq(3, 3, 1)), "disjoint")

	cross := geom.Path{{X: 1, Y: -1}, {X: 2, Y: -1}, {X: 2, Y: 4}, {X: 1, Y: 4}, {X: 1, Y: -1}}
	assert.True(t, ringsIntersect(sq(0, 0, 3), cross), "crossing without contained vertices")
}
