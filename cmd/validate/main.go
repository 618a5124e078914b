// Command validate checks a GeoJSON grid written by windwatch: ring
// structure, cell identifiers and score ranges. Given the input files and
// build parameters it also rebuilds the map and compares every cell.
//
// Usage:
//
//	go run ./cmd/validate -grid out/grid.geojson
//
//	go run ./cmd/validate -grid out/grid.geojson \
//	  -birds data/proc_bird_sighting_data.jsonl \
//	  -wind data/proc_wind_speed_data.jsonl \
//	  -region 49.0,52.833333,-114.0,-110.0 -grid-size 20000
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/MackenzieBowal/windwatch/internal/adapter/geojson"
	"github.com/MackenzieBowal/windwatch/internal/adapter/jsonl"
	"github.com/MackenzieBowal/windwatch/internal/domain"
	"github.com/MackenzieBowal/windwatch/internal/mapmodel"
)

// coordTolerance is the allowed lon/lat drift after a GeoJSON round trip.
const coordTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	gridPath     string
	birdPath     string
	windPath     string
	region       string
	gridSize     float64
	bufferRadius float64
	birdWeight   int
	windWeight   int
}

func main() {
	var o options
	flag.StringVar(&o.gridPath, "grid", "", "path to the GeoJSON grid to validate")
	flag.StringVar(&o.birdPath, "birds", "", "bird JSONL used to build the grid (enables rebuild parity)")
	flag.StringVar(&o.windPath, "wind", "", "wind JSONL used to build the grid (enables rebuild parity)")
	flag.StringVar(&o.region, "region", "49.0,52.833333,-114.0,-110.0", "latMin,latMax,lonMin,lonMax")
	flag.Float64Var(&o.gridSize, "grid-size", mapmodel.DefaultGridSize, "cell side in metres")
	flag.Float64Var(&o.bufferRadius, "buffer-radius", mapmodel.DefaultBufferRadius, "bird footprint radius in metres")
	flag.IntVar(&o.birdWeight, "bird-risk-weight", domain.DefaultBirdRiskWeight, "bird risk weight")
	flag.IntVar(&o.windWeight, "wind-speed-weight", domain.DefaultWindSpeedWeight, "wind speed weight")
	flag.Parse()

	if o.gridPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(o); code != 0 {
		os.Exit(code)
	}
}

func run(o options) int {
	fmt.Println("=== Grid Integrity Validation ===")
	fmt.Println()

	cells, err := loadGrid(o.gridPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load grid: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateStructure(cells),
		validateIdentifiers(cells),
		validateScores(cells),
	}

	if o.birdPath != "" && o.windPath != "" {
		p, err := validateRebuild(o, cells)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: rebuild: %v\n", err)
			return 1
		}
		phases = append(phases, p)
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Cells: %d\n", len(cells))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadGrid(path string) ([]mapmodel.CellView, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return geojson.Decode(f)
}

// ── Phases ──

func validateStructure(cells []mapmodel.CellView) *phase {
	p := &phase{name: "Cell polygons are closed 4-corner rings"}
	if len(cells) == 0 {
		p.errorf("grid has no cells")
	}
	for _, c := range cells {
		if len(c.Polygon) != 1 {
			p.errorf("cell %d: %d rings, want 1", c.ID, len(c.Polygon))
			continue
		}
		ring := c.Polygon[0]
		if len(ring) != 5 {
			p.errorf("cell %d: %d ring points, want 5", c.ID, len(ring))
			continue
		}
		if ring[0] != ring[4] {
			p.errorf("cell %d: ring is not closed", c.ID)
		}
		seen := map[[2]float64]bool{}
		for _, pt := range ring[:4] {
			seen[[2]float64{pt.X, pt.Y}] = true
			if pt.X < -180 || pt.X > 180 || pt.Y < -90 || pt.Y > 90 {
				p.errorf("cell %d: corner %g,%g is not a lon/lat coordinate", c.ID, pt.X, pt.Y)
			}
		}
		if len(seen) != 4 {
			p.errorf("cell %d: %d distinct corners, want 4", c.ID, len(seen))
		}
	}
	return p
}

func validateIdentifiers(cells []mapmodel.CellView) *phase {
	p := &phase{name: "Cell ids are unique and run 0..n-1"}
	seen := make(map[int]bool, len(cells))
	for i, c := range cells {
		if seen[c.ID] {
			p.errorf("cell id %d appears more than once", c.ID)
		}
		seen[c.ID] = true
		if c.ID != i {
			p.errorf("feature %d has id %d", i, c.ID)
		}
	}
	return p
}

func validateScores(cells []mapmodel.CellView) *phase {
	p := &phase{name: "Scores are within [0, 1]"}
	for _, c := range cells {
		for name, v := range map[string]float64{"birdRisk": c.BirdRisk, "windSpeed": c.WindSpeed, "value": c.Value} {
			if math.IsNaN(v) || v < 0 || v > 1 {
				p.errorf("cell %d: %s = %g", c.ID, name, v)
			}
		}
	}
	return p
}

func validateRebuild(o options, cells []mapmodel.CellView) (*phase, error) {
	region, err := domain.ParseRegion(o.region)
	if err != nil {
		return nil, err
	}
	cfg := mapmodel.DefaultConfig(region)
	cfg.GridSize = o.gridSize
	cfg.BufferRadius = o.bufferRadius
	cfg.Coefficients = domain.CoefficientSet{BirdRiskWeight: o.birdWeight, WindSpeedWeight: o.windWeight}

	ctx := context.Background()
	src := jsonl.FileSource{BirdPath: o.birdPath, WindPath: o.windPath}
	birds, err := src.LoadBirds(ctx)
	if err != nil {
		return nil, err
	}
	wind, err := src.LoadWind(ctx)
	if err != nil {
		return nil, err
	}
	birds, _ = domain.FilterToRegion(birds, region)
	wind, _ = domain.FilterToRegion(wind, region)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := mapmodel.Build(ctx, cfg, birds, wind, logger)
	if err != nil {
		return nil, err
	}
	want := m.Snapshot().Cells

	p := &phase{name: "Grid matches a rebuild from inputs"}
	if len(want) != len(cells) {
		p.errorf("rebuild has %d cells, file has %d", len(want), len(cells))
		return p, nil
	}
	for i, got := range cells {
		compareCell(p, want[i], got)
	}
	return p, nil
}

func compareCell(p *phase, want, got mapmodel.CellView) {
	if want.BirdRisk != got.BirdRisk || want.WindSpeed != got.WindSpeed || want.Value != got.Value {
		p.errorf("cell %d: scores %g/%g/%g, rebuild %g/%g/%g", got.ID,
			got.BirdRisk, got.WindSpeed, got.Value, want.BirdRisk, want.WindSpeed, want.Value)
	}
	if len(got.Polygon) != 1 || len(got.Polygon[0]) != len(want.Polygon[0]) {
		return
	}
	for j, pt := range got.Polygon[0] {
		w := want.Polygon[0][j]
		if math.Abs(pt.X-w.X) > coordTolerance || math.Abs(pt.Y-w.Y) > coordTolerance {
			p.errorf("cell %d: corner %d at %g,%g, rebuild %g,%g", got.ID, j, pt.X, pt.Y, w.X, w.Y)
		}
	}
}
