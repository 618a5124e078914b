package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
)

// Region is a geographic bounding box in WGS84 degrees.
type Region struct {
	LatMin float64 `json:"lat_min" yaml:"lat_min"`
	LatMax float64 `json:"lat_max" yaml:"lat_max"`
	LonMin float64 `json:"lon_min" yaml:"lon_min"`
	LonMax float64 `json:"lon_max" yaml:"lon_max"`
}

// NewRegion validates and returns a Region. Bounds follow the
// [latMin, latMax, lonMin, lonMax] order used by the run configuration.
func NewRegion(latMin, latMax, lonMin, lonMax float64) (Region, error) {
	r := Region{LatMin: latMin, LatMax: latMax, LonMin: lonMin, LonMax: lonMax}
	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}

// ParseRegion reads "latMin,latMax,lonMin,lonMax".
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("region %q: want latMin,latMax,lonMin,lonMax", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = f
	}
	return NewRegion(v[0], v[1], v[2], v[3])
}

// Validate checks ordering and that every bound is a finite WGS84 coordinate.
func (r Region) Validate() error {
	for _, f := range []float64{r.LatMin, r.LatMax, r.LonMin, r.LonMax} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("region %v: non-finite bound", r)
		}
	}
	if r.LatMin < -90 || r.LatMax > 90 {
		return fmt.Errorf("region %v: latitude outside [-90, 90]", r)
	}
	if r.LonMin < -180 || r.LonMax > 180 {
		return fmt.Errorf("region %v: longitude outside [-180, 180]", r)
	}
	if r.LatMin >= r.LatMax {
		return fmt.Errorf("region %v: latMin must be below latMax", r)
	}
	if r.LonMin >= r.LonMax {
		return fmt.Errorf("region %v: lonMin must be below lonMax", r)
	}
	return nil
}

// Rect returns the region as an s2 latitude/longitude rectangle.
func (r Region) Rect() s2.Rect {
	return s2.RectFromLatLng(s2.LatLngFromDegrees(r.LatMin, r.LonMin)).
		AddPoint(s2.LatLngFromDegrees(r.LatMax, r.LonMax))
}

// Center returns the centroid of the bounding box as (lat, lon) degrees.
func (r Region) Center() (lat, lon float64) {
	c := r.Rect().Center()
	return c.Lat.Degrees(), c.Lng.Degrees()
}

// Contains reports whether a point lies inside the region, bounds inclusive.
func (r Region) Contains(lat, lon float64) bool {
	return r.Rect().ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}

// Corners returns the four corners as (lon, lat) pairs, counter-clockwise
// from the south-west corner.
func (r Region) Corners() [4][2]float64 {
	return [4][2]float64{
		{r.LonMin, r.LatMin},
		{r.LonMax, r.LatMin},
		{r.LonMax, r.LatMax},
		{r.LonMin, r.LatMax},
	}
}

func (r Region) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", r.LatMin, r.LatMax, r.LonMin, r.LonMax)
}
