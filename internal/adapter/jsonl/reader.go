// Package jsonl reads processed observation files: one JSON object per line.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/MackenzieBowal/windwatch/internal/domain"
)

// maxLineSize bounds a single record.
const maxLineSize = 1 << 20

type record map[string]json.RawMessage

// ReadBirds parses bird sightings. Malformed JSON fails with
// domain.ErrDataLoad; a missing or invalid field fails with domain.ErrSchema.
func ReadBirds(r io.Reader) ([]domain.BirdSighting, error) {
	var out []domain.BirdSighting
	err := scan(r, func(rec record) error {
		// Raw eBird exports name the longitude "lng".
		if _, ok := rec["lon"]; !ok {
			if lng, ok := rec["lng"]; ok {
				rec["lon"] = lng
			}
		}
		if isNull(rec["noCount"]) {
			rec["noCount"] = json.RawMessage("0")
		}

		var b domain.BirdSighting
		if err := firstErr(
			field(rec, "speciesCode", &b.SpeciesCode),
			field(rec, "comName", &b.ComName),
			field(rec, "sciName", &b.SciName),
			field(rec, "obsDt", &b.ObsDt),
			field(rec, "howMany", &b.HowMany),
			field(rec, "noCount", &b.NoCount),
			field(rec, "lat", &b.Lat),
			field(rec, "lon", &b.Lon),
		); err != nil {
			return err
		}
		if b.HowMany < 0 {
			return fmt.Errorf("%w: howMany %d is negative", domain.ErrSchema, b.HowMany)
		}
		if b.NoCount != 0 && b.NoCount != 1 {
			return fmt.Errorf("%w: noCount %d must be 0 or 1", domain.ErrSchema, b.NoCount)
		}
		if err := checkPosition(b.Lat, b.Lon); err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	return out, err
}

// ReadWind parses wind speed records.
func ReadWind(r io.Reader) ([]domain.WindRecord, error) {
	var out []domain.WindRecord
	err := scan(r, func(rec record) error {
		var w domain.WindRecord
		if err := firstErr(
			field(rec, "lat", &w.Lat),
			field(rec, "lon", &w.Lon),
			field(rec, "windSpeed", &w.WindSpeed),
		); err != nil {
			return err
		}
		if err := checkPosition(w.Lat, w.Lon); err != nil {
			return err
		}
		if math.IsNaN(w.WindSpeed) || math.IsInf(w.WindSpeed, 0) || w.WindSpeed < 0 {
			return fmt.Errorf("%w: windSpeed %g must be a non-negative number", domain.ErrSchema, w.WindSpeed)
		}
		out = append(out, w)
		return nil
	})
	return out, err
}

func scan(r io.Reader, fn func(rec record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("%w: line %d: %v", domain.ErrDataLoad, line, err)
		}
		if err := fn(rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: line %d: %v", domain.ErrDataLoad, line+1, err)
	}
	return nil
}

// field decodes a required member. JSON null counts as missing.
func field[T any](rec record, name string, dst *T) error {
	v, ok := rec[name]
	if !ok || isNull(v) {
		return fmt.Errorf("%w: missing field %q", domain.ErrSchema, name)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%w: field %q: %v", domain.ErrSchema, name, err)
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return v != nil && bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func checkPosition(lat, lon float64) error {
	if !(lat >= -90 && lat <= 90) {
		return fmt.Errorf("%w: lat %g outside [-90, 90]", domain.ErrSchema, lat)
	}
	if !(lon >= -180 && lon <= 180) {
		return fmt.Errorf("%w: lon %g outside [-180, 180]", domain.ErrSchema, lon)
	}
	return nil
}

// FileSource loads observations from the two processed files on disk.
type FileSource struct {
	BirdPath string
	WindPath string
}

// LoadBirds reads the bird file.
func (s FileSource) LoadBirds(ctx context.Context) ([]domain.Observation, error) {
	birds, err := readFile(ctx, s.BirdPath, ReadBirds)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Observation, len(birds))
	for i, b := range birds {
		out[i] = b.Observation()
	}
	return out, nil
}

// LoadWind reads the wind file.
func (s FileSource) LoadWind(ctx context.Context) ([]domain.Observation, error) {
	wind, err := readFile(ctx, s.WindPath, ReadWind)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Observation, len(wind))
	for i, w := range wind {
		out[i] = w.Observation()
	}
	return out, nil
}

func readFile[T any](ctx context.Context, path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataLoad, err)
	}
	defer f.Close()

	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
