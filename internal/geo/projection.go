package geo

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"

	"github.com/MackenzieBowal/windwatch/internal/domain"
)

const longLatDef = "+proj=longlat +datum=WGS84 +no_defs"

// UTM is defined between 80°S and 84°N.
const (
	utmMinLat = -80.0
	utmMaxLat = 84.0
)

// Projection is a UTM zone with forward (lon/lat degrees -> metres) and
// inverse transforms.
type Projection struct {
	Zone  int
	South bool

	fwd proj.Transformer
	inv proj.Transformer
}

// Def returns the proj4 definition of the metric side.
func (p *Projection) Def() string {
	return utmDef(p.Zone, p.South)
}

// Forward converts lon/lat degrees to projected metres.
func (p *Projection) Forward(lon, lat float64) (x, y float64, err error) {
	x, y, err = p.fwd(lon, lat)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: forward %g,%g: %v", domain.ErrProjection, lon, lat, err)
	}
	if !finite(x) || !finite(y) {
		return 0, 0, fmt.Errorf("%w: forward %g,%g is not finite", domain.ErrProjection, lon, lat)
	}
	return x, y, nil
}

// Inverse converts projected metres back to lon/lat degrees.
func (p *Projection) Inverse(x, y float64) (lon, lat float64, err error) {
	lon, lat, err = p.inv(x, y)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: inverse %g,%g: %v", domain.ErrProjection, x, y, err)
	}
	return lon, lat, nil
}

// ToMetric reprojects a geographic geometry into the zone.
func (p *Projection) ToMetric(g geom.Geom) (geom.Geom, error) {
	out, err := g.Transform(p.fwd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProjection, err)
	}
	return out, nil
}

// ToGeographic reprojects a metric geometry back to lon/lat degrees.
func (p *Projection) ToGeographic(g geom.Geom) (geom.Geom, error) {
	out, err := g.Transform(p.inv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProjection, err)
	}
	return out, nil
}

// Frame is a region expressed in its metric projection.
type Frame struct {
	Region     domain.Region
	Projection *Projection
	Bounds     *geom.Bounds
}

// Width and Height are the projected extents in metres.
func (f *Frame) Width() float64  { return f.Bounds.Max.X - f.Bounds.Min.X }
func (f *Frame) Height() float64 { return f.Bounds.Max.Y - f.Bounds.Min.Y }

// ProjectRegion picks the UTM zone containing the region centroid and
// returns the bounds of the four projected corners. The choice depends only
// on the region, so the same region always yields the same frame.
func ProjectRegion(r domain.Region) (*Frame, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProjection, err)
	}
	if r.LatMin < utmMinLat || r.LatMax > utmMaxLat {
		return nil, fmt.Errorf("%w: region %s extends beyond UTM latitude limits [%g, %g]",
			domain.ErrProjection, r, utmMinLat, utmMaxLat)
	}

	lat, lon := r.Center()
	p, err := ProjectionFor(utmZone(lon), lat < 0)
	if err != nil {
		return nil, err
	}

	b := geom.NewBounds()
	for _, c := range r.Corners() {
		x, y, err := p.Forward(c[0], c[1])
		if err != nil {
			return nil, err
		}
		b.Extend(geom.NewBoundsPoint(geom.Point{X: x, Y: y}))
	}
	return &Frame{Region: r, Projection: p, Bounds: b}, nil
}

// ProjectionFor returns the transforms for a UTM zone, reusing parsed
// definitions across builds.
func ProjectionFor(zone int, south bool) (*Projection, error) {
	if zone < 1 || zone > 60 {
		return nil, fmt.Errorf("%w: UTM zone %d outside [1, 60]", domain.ErrProjection, zone)
	}
	return projections.getOrLoad(utmDef(zone, south), func() (*Projection, error) {
		return newProjection(zone, south)
	})
}

func newProjection(zone int, south bool) (*Projection, error) {
	def := utmDef(zone, south)
	src, err := proj.Parse(longLatDef)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", domain.ErrProjection, longLatDef, err)
	}
	dst, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", domain.ErrProjection, def, err)
	}
	fwd, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("%w: forward transform: %v", domain.ErrProjection, err)
	}
	inv, err := dst.NewTransform(src)
	if err != nil {
		return nil, fmt.Errorf("%w: inverse transform: %v", domain.ErrProjection, err)
	}
	return &Projection{Zone: zone, South: south, fwd: fwd, inv: inv}, nil
}

// utmZone returns the standard 6° zone for a longitude. The Norway and
// Svalbard exceptions are not applied.
func utmZone(lon float64) int {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone > 60 {
		zone = 60
	}
	if zone < 1 {
		zone = 1
	}
	return zone
}

func utmDef(zone int, south bool) string {
	def := fmt.Sprintf("+proj=utm +zone=%d", zone)
	if south {
		def += " +south"
	}
	return def + " +datum=WGS84 +units=m +no_defs"
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
