// Package geojson writes and reads a built grid as a GeoJSON
// FeatureCollection: one Polygon feature per cell in lon/lat order.
package geojson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"

	"github.com/MackenzieBowal/windwatch/internal/domain"
	"github.com/MackenzieBowal/windwatch/internal/mapmodel"
)

// crs84 is the legacy "crs" member naming WGS84 lon/lat.
var crs84 = map[string]any{
	"type":       "name",
	"properties": map[string]any{"name": "urn:ogc:def:crs:OGC:1.3:CRS84"},
}

// FeatureCollection converts a snapshot. Every feature carries id,
// birdRisk, windSpeed and value, plus selected for the snapshot's layer.
func FeatureCollection(snap mapmodel.Snapshot) *orbjson.FeatureCollection {
	fc := orbjson.NewFeatureCollection()
	for i, c := range snap.Cells {
		f := orbjson.NewFeature(toOrb(c.Polygon))
		f.ID = c.ID
		f.Properties["id"] = c.ID
		f.Properties["birdRisk"] = c.BirdRisk
		f.Properties["windSpeed"] = c.WindSpeed
		f.Properties["value"] = c.Value
		if i < len(snap.Selected) {
			f.Properties["selected"] = snap.Selected[i]
		}
		fc.Append(f)
	}
	fc.ExtraMembers = orbjson.Properties{
		"crs":          crs84,
		"layer":        string(snap.Layer),
		"coefficients": snap.Coefficients,
	}
	if !snap.BuiltAt.IsZero() {
		fc.ExtraMembers["built_at"] = snap.BuiltAt.UTC().Format(time.RFC3339)
	}
	return fc
}

// Encode writes the snapshot as GeoJSON.
func Encode(w io.Writer, snap mapmodel.Snapshot) error {
	data, err := json.Marshal(FeatureCollection(snap))
	if err != nil {
		return fmt.Errorf("marshal grid: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write grid: %w", err)
	}
	return nil
}

// Decode reads cells back from GeoJSON written by Encode. Features must be
// single-ring polygons.
func Decode(r io.Reader) ([]mapmodel.CellView, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataLoad, err)
	}
	fc, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataLoad, err)
	}

	cells := make([]mapmodel.CellView, 0, len(fc.Features))
	for i, f := range fc.Features {
		poly, ok := f.Geometry.(orb.Polygon)
		if !ok {
			return nil, fmt.Errorf("%w: feature %d: geometry %T is not a polygon", domain.ErrSchema, i, f.Geometry)
		}
		for _, key := range []string{"id", "birdRisk", "windSpeed", "value"} {
			if _, ok := f.Properties[key]; !ok {
				return nil, fmt.Errorf("%w: feature %d: missing property %q", domain.ErrSchema, i, key)
			}
		}
		cells = append(cells, mapmodel.CellView{
			ID:        f.Properties.MustInt("id"),
			Polygon:   fromOrb(poly),
			BirdRisk:  f.Properties.MustFloat64("birdRisk"),
			WindSpeed: f.Properties.MustFloat64("windSpeed"),
			Value:     f.Properties.MustFloat64("value"),
		})
	}
	return cells, nil
}

func toOrb(p geom.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, path := range p {
		ring := make(orb.Ring, len(path))
		for j, pt := range path {
			ring[j] = orb.Point{pt.X, pt.Y}
		}
		out[i] = ring
	}
	return out
}

func fromOrb(p orb.Polygon) geom.Polygon {
	out := make(geom.Polygon, len(p))
	for i, ring := range p {
		path := make(geom.Path, len(ring))
		for j, pt := range ring {
			path[j] = geom.Point{X: pt.Lon(), Y: pt.Lat()}
		}
		out[i] = path
	}
	return out
}

// FileWriter writes the grid to a path, replacing any previous file.
type FileWriter struct {
	path   string
	logger *slog.Logger
}

// NewFileWriter returns a sink writing to path.
func NewFileWriter(path string, logger *slog.Logger) *FileWriter {
	return &FileWriter{path: path, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *FileWriter) Name() string { return "geojson" }

// Write encodes snap to a temporary file beside the target and renames it
// into place.
func (w *FileWriter) Write(ctx context.Context, snap mapmodel.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".grid-*.geojson")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	w.logger.Info("grid written", "path", w.path, "cells", len(snap.Cells))
	return nil
}
