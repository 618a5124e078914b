package geo

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"

	"github.com/MackenzieBowal/windwatch/internal/domain"
)

// Predicate selects which cells a feature is attributed to.
type Predicate int

const (
	// Intersects matches every cell sharing at least one point with the
	// feature, edges included.
	Intersects Predicate = iota
	// Contains matches cells whose interior holds the whole feature. A point
	// on a shared edge belongs to no cell.
	Contains
)

func (p Predicate) String() string {
	switch p {
	case Intersects:
		return "intersects"
	case Contains:
		return "contains"
	default:
		return fmt.Sprintf("predicate(%d)", int(p))
	}
}

// Reduction combines the weights matched to one cell.
type Reduction int

const (
	Sum Reduction = iota
	Mean
)

// Fallback fills cells that matched no feature.
type Fallback int

const (
	// FillZero leaves unmatched cells at 0.
	FillZero Fallback = iota
	// FillMinPopulated assigns the smallest value among matched cells and
	// fails when no cell matched.
	FillMinPopulated
)

// Join describes one spatial join.
type Join struct {
	Predicate Predicate
	Reduction Reduction
	Fallback  Fallback
}

// The two joins a map is built from.
var (
	BirdRiskJoin  = Join{Predicate: Intersects, Reduction: Sum, Fallback: FillZero}
	WindSpeedJoin = Join{Predicate: Contains, Reduction: Mean, Fallback: FillMinPopulated}
)

// Feature is a weighted geometry in the grid's metric frame. Geometry must
// be a geom.Point or a single-ring geom.Polygon.
type Feature struct {
	Geometry geom.Geom
	Weight   float64
}

// FootprintFeatures adapts footprints for Aggregate.
func FootprintFeatures(fps []Footprint) []Feature {
	out := make([]Feature, len(fps))
	for i, f := range fps {
		out[i] = Feature{Geometry: f.Projected, Weight: f.Weight}
	}
	return out
}

// SampleFeatures adapts wind samples for Aggregate.
func SampleFeatures(ss []WindSample) []Feature {
	out := make([]Feature, len(ss))
	for i, s := range ss {
		out[i] = Feature{Geometry: s.Projected, Weight: s.Value}
	}
	return out
}

// Aggregate attributes feature weights to grid cells and returns one raw
// value per cell, indexed by cell ID. Neither the grid nor the features are
// modified, so a join can be re-run freely.
func Aggregate(g *Grid, features []Feature, j Join) ([]float64, error) {
	sums := make([]float64, g.Len())
	counts := make([]int, g.Len())

	for fi, f := range features {
		switch f.Geometry.(type) {
		case geom.Point, geom.Polygon:
		case nil:
			return nil, fmt.Errorf("feature %d has no geometry", fi)
		default:
			return nil, fmt.Errorf("feature %d: unsupported geometry %T", fi, f.Geometry)
		}
		for _, id := range g.candidates(f.Geometry.Bounds()) {
			ok, err := matches(j.Predicate, g.Cells[id].Projected[0], f.Geometry)
			if err != nil {
				return nil, fmt.Errorf("feature %d: %w", fi, err)
			}
			if ok {
				sums[id] += f.Weight
				counts[id]++
			}
		}
	}

	out := make([]float64, len(sums))
	floor := math.Inf(1)
	populated := 0
	for id := range sums {
		if counts[id] == 0 {
			continue
		}
		populated++
		out[id] = sums[id]
		if j.Reduction == Mean {
			out[id] = sums[id] / float64(counts[id])
		}
		floor = math.Min(floor, out[id])
	}

	if j.Fallback == FillMinPopulated && populated < len(out) {
		if populated == 0 {
			return nil, fmt.Errorf("%w: none of %d cells %s any of %d samples",
				domain.ErrInsufficientObservationCoverage, len(out), j.Predicate, len(features))
		}
		for id := range out {
			if counts[id] == 0 {
				out[id] = floor
			}
		}
	}
	return out, nil
}

func matches(p Predicate, cell geom.Path, g geom.Geom) (bool, error) {
	switch v := g.(type) {
	case geom.Point:
		if p == Contains {
			return ringContainsPoint(cell, v), nil
		}
		return v.Within(geom.Polygon{cell}) != geom.Outside, nil
	case geom.Polygon:
		if len(v) == 0 {
			return false, nil
		}
		if p == Contains {
			return convexContainsRing(cell, v[0]), nil
		}
		return ringsIntersect(cell, v[0]), nil
	default:
		return false, fmt.Errorf("unsupported geometry %T", g)
	}
}
