package geo

import "github.com/ctessum/geom"

// ringsIntersect reports whether two simple closed rings share any point,
// including touching edges and full containment.
func ringsIntersect(a, b geom.Path) bool {
	if !boundsTouch(pathBounds(a), pathBounds(b)) {
		return false
	}
	pa, pb := geom.Polygon{a}, geom.Polygon{b}
	for _, v := range b {
		if v.Within(pa) != geom.Outside {
			return true
		}
	}
	for _, v := range a {
		if v.Within(pb) != geom.Outside {
			return true
		}
	}
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

// ringContainsPoint is strict: points on the boundary are not contained.
func ringContainsPoint(ring geom.Path, p geom.Point) bool {
	return p.Within(geom.Polygon{ring}) == geom.Inside
}

// convexContainsRing reports whether every vertex of inner lies strictly
// inside the convex ring outer.
func convexContainsRing(outer, inner geom.Path) bool {
	for _, v := range inner {
		if !ringContainsPoint(outer, v) {
			return false
		}
	}
	return len(inner) > 0
}

func pathBounds(p geom.Path) *geom.Bounds {
	b := geom.NewBounds()
	for _, v := range p {
		b.Extend(geom.NewBoundsPoint(v))
	}
	return b
}

func boundsTouch(a, b *geom.Bounds) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}

func segmentsIntersect(p1, p2, q1, q2 geom.Point) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func orient(a, b, c geom.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment assumes c is collinear with a-b.
func onSegment(a, b, c geom.Point) bool {
	return c.X >= min(a.X, b.X) && c.X <= max(a.X, b.X) &&
		c.Y >= min(a.Y, b.Y) && c.Y <= max(a.Y, b.Y)
}
