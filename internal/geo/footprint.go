package geo

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"

	"github.com/MackenzieBowal/windwatch/internal/domain"
)

// DefaultBufferRadius is the footprint radius in metres around a sighting.
const DefaultBufferRadius = 1000.0

// circleSegments is the number of straight edges approximating a footprint.
const circleSegments = 64

// Footprint is a bird sighting buffered into a circle of fixed radius.
type Footprint struct {
	Center    geom.Point
	Projected geom.Polygon
	Polygon   geom.Polygon
	Weight    float64
}

// BuildFootprints projects each observation into p, buffers it by radius
// metres and reprojects the circle to lon/lat. Output order follows input.
func BuildFootprints(p *Projection, obs []domain.Observation, radius float64) ([]Footprint, error) {
	if !(radius > 0) || math.IsInf(radius, 1) {
		return nil, fmt.Errorf("%w: buffer radius %g must be a positive number of metres",
			domain.ErrInvalidGridConfiguration, radius)
	}

	out := make([]Footprint, 0, len(obs))
	for i, o := range obs {
		x, y, err := p.Forward(o.Lon, o.Lat)
		if err != nil {
			return nil, fmt.Errorf("bird observation %d: %w", i, err)
		}
		circle := Circle(geom.Point{X: x, Y: y}, radius)
		gg, err := p.ToGeographic(circle)
		if err != nil {
			return nil, fmt.Errorf("bird observation %d: %w", i, err)
		}
		out = append(out, Footprint{
			Center:    geom.Point{X: x, Y: y},
			Projected: circle,
			Polygon:   gg.(geom.Polygon),
			Weight:    o.Magnitude,
		})
	}
	return out, nil
}

// Circle returns a closed counter-clockwise polygon approximating a circle.
func Circle(c geom.Point, radius float64) geom.Polygon {
	ring := make(geom.Path, circleSegments+1)
	for k := 0; k < circleSegments; k++ {
		a := 2 * math.Pi * float64(k) / circleSegments
		ring[k] = geom.Point{X: c.X + radius*math.Cos(a), Y: c.Y + radius*math.Sin(a)}
	}
	ring[circleSegments] = ring[0]
	return geom.Polygon{ring}
}

// WindSample is a wind observation kept as a bare point.
type WindSample struct {
	Point     geom.Point
	Projected geom.Point
	Value     float64
}

// ProjectSamples projects wind observations into p. Output order follows input.
func ProjectSamples(p *Projection, obs []domain.Observation) ([]WindSample, error) {
	out := make([]WindSample, 0, len(obs))
	for i, o := range obs {
		x, y, err := p.Forward(o.Lon, o.Lat)
		if err != nil {
			return nil, fmt.Errorf("wind observation %d: %w", i, err)
		}
		out = append(out, WindSample{
			Point:     geom.Point{X: o.Lon, Y: o.Lat},
			Projected: geom.Point{X: x, Y: y},
			Value:     o.Magnitude,
		})
	}
	return out, nil
}
