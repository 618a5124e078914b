// Package mapmodel builds a siting map from bird and wind observations and
// serves the interactive operations on it.
//
// A Model owns one grid plus the cached bird footprints and wind samples it
// was aggregated from. Changing coefficients only reruns the composite
// scorer; the spatial joins run once per build. A Model is single-writer:
// callers that share one across goroutines must serialize access.
package mapmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ctessum/geom"

	"github.com/MackenzieBowal/windwatch/internal/domain"
	"github.com/MackenzieBowal/windwatch/internal/geo"
	"github.com/MackenzieBowal/windwatch/internal/scoring"
)

// DefaultGridSize is the cell side length in metres.
const DefaultGridSize = 20000.0

// DefaultBufferRadius is the bird footprint radius in metres.
const DefaultBufferRadius = geo.DefaultBufferRadius

// DefaultMaxCells rejects grids that would not fit comfortably in memory.
const DefaultMaxCells = 1_000_000

// Config holds the construction parameters of a map.
type Config struct {
	Region       domain.Region
	GridSize     float64
	BufferRadius float64
	// MaxCells caps the grid size; zero disables the cap.
	MaxCells     int
	Coefficients domain.CoefficientSet
	Layer        domain.Layer
}

// DefaultConfig returns the documented defaults for a region.
func DefaultConfig(r domain.Region) Config {
	return Config{
		Region:       r,
		GridSize:     DefaultGridSize,
		BufferRadius: DefaultBufferRadius,
		MaxCells:     DefaultMaxCells,
		Coefficients: domain.DefaultCoefficients(),
		Layer:        domain.LayerValue,
	}
}

// Columns are the per-cell values, indexed by cell ID.
type Columns struct {
	BirdRiskRaw  []float64
	WindSpeedRaw []float64
	BirdRisk     []float64
	WindSpeed    []float64
	Value        []float64
}

// Layer returns the normalized column for l.
func (c Columns) Layer(l domain.Layer) []float64 {
	switch l {
	case domain.LayerBirdRisk:
		return c.BirdRisk
	case domain.LayerWindSpeed:
		return c.WindSpeed
	default:
		return c.Value
	}
}

func (c Columns) clone() Columns {
	return Columns{
		BirdRiskRaw:  clone(c.BirdRiskRaw),
		WindSpeedRaw: clone(c.WindSpeedRaw),
		BirdRisk:     clone(c.BirdRisk),
		WindSpeed:    clone(c.WindSpeed),
		Value:        clone(c.Value),
	}
}

// Resolution rebuilds a map at a different grid size.
type Resolution interface {
	Rebuild(ctx context.Context, m *Model, gridSize float64) (*Model, error)
}

// SiteSearch ranks cells for installation. It returns up to n cell IDs,
// best first.
type SiteSearch interface {
	FindBestSites(ctx context.Context, snap Snapshot, n int) ([]int, error)
}

// Option configures optional collaborators of a Model.
type Option func(*Model)

// WithResolution installs a resolution rebuilder.
func WithResolution(r Resolution) Option {
	return func(m *Model) { m.resolution = r }
}

// WithSiteSearch installs a site search strategy.
func WithSiteSearch(s SiteSearch) Option {
	return func(m *Model) { m.sites = s }
}

// Model is a built siting map.
type Model struct {
	cfg        Config
	birds      []domain.Observation
	wind       []domain.Observation
	grid       *geo.Grid
	footprints []geo.Footprint
	samples    []geo.WindSample
	cols       Columns
	coeffs     domain.CoefficientSet
	layer      domain.Layer
	builtAt    time.Time

	logger     *slog.Logger
	resolution Resolution
	sites      SiteSearch
}

// Build projects the region, tessellates it, aggregates both observation
// sets and scores every cell. No partial model is returned on error. A nil
// logger falls back to slog.Default.
func Build(ctx context.Context, cfg Config, birds, wind []domain.Observation, logger *slog.Logger, opts ...Option) (*Model, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := domain.Clock().Now()
	if cfg.BufferRadius == 0 {
		cfg.BufferRadius = DefaultBufferRadius
	}
	if cfg.Layer == "" {
		cfg.Layer = domain.LayerValue
	}
	if _, err := domain.ParseLayer(string(cfg.Layer)); err != nil {
		return nil, err
	}
	if err := cfg.Coefficients.Validate(); err != nil {
		return nil, err
	}

	frame, err := geo.ProjectRegion(cfg.Region)
	if err != nil {
		return nil, err
	}
	grid, err := geo.BuildGrid(frame, cfg.GridSize, cfg.MaxCells)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	footprints, err := geo.BuildFootprints(frame.Projection, birds, cfg.BufferRadius)
	if err != nil {
		return nil, err
	}
	samples, err := geo.ProjectSamples(frame.Projection, wind)
	if err != nil {
		return nil, err
	}

	birdRaw, err := geo.Aggregate(grid, geo.FootprintFeatures(footprints), geo.BirdRiskJoin)
	if err != nil {
		return nil, fmt.Errorf("bird risk join: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	windRaw, err := geo.Aggregate(grid, geo.SampleFeatures(samples), geo.WindSpeedJoin)
	if err != nil {
		return nil, fmt.Errorf("wind speed join: %w", err)
	}

	cols := Columns{
		BirdRiskRaw:  birdRaw,
		WindSpeedRaw: windRaw,
		BirdRisk:     scoring.Normalize(birdRaw),
		WindSpeed:    scoring.Normalize(windRaw),
	}
	cols.Value, err = scoring.Composite(cols.BirdRisk, cols.WindSpeed, cfg.Coefficients)
	if err != nil {
		return nil, err
	}

	m := &Model{
		cfg:        cfg,
		birds:      birds,
		wind:       wind,
		grid:       grid,
		footprints: footprints,
		samples:    samples,
		cols:       cols,
		coeffs:     cfg.Coefficients,
		layer:      cfg.Layer,
		builtAt:    domain.Clock().Now(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(m)
	}

	logger.Info("map built",
		"region", cfg.Region.String(),
		"utm_zone", frame.Projection.Zone,
		"grid_size", cfg.GridSize,
		"cells", grid.Len(),
		"bird_footprints", len(footprints),
		"wind_samples", len(samples),
		"duration", domain.Clock().Since(start),
	)
	return m, nil
}

// SetCoefficients merges u into the current weights and rescores the value
// column. The bird and wind columns are never touched. On error the model
// is unchanged.
func (m *Model) SetCoefficients(u domain.CoefficientUpdate) (domain.CoefficientSet, error) {
	next, err := m.coeffs.Merge(u)
	if err != nil {
		return m.coeffs, err
	}
	value, err := scoring.Composite(m.cols.BirdRisk, m.cols.WindSpeed, next)
	if err != nil {
		return m.coeffs, err
	}
	m.coeffs = next
	m.cols.Value = value
	m.logger.Debug("coefficients updated",
		"bird_risk_weight", next.BirdRiskWeight,
		"wind_speed_weight", next.WindSpeedWeight,
	)
	return next, nil
}

// SelectLayer records which column the renderer should draw.
func (m *Model) SelectLayer(name string) error {
	l, err := domain.ParseLayer(name)
	if err != nil {
		return err
	}
	m.layer = l
	return nil
}

// Layer returns the selected layer.
func (m *Model) Layer() domain.Layer { return m.layer }

// Coefficients returns the current weights.
func (m *Model) Coefficients() domain.CoefficientSet { return m.coeffs }

// Config returns the configuration the model was built with.
func (m *Model) Config() Config { return m.cfg }

// Grid returns the cell geometry. Callers must not modify it.
func (m *Model) Grid() *geo.Grid { return m.grid }

// Footprints returns the cached bird footprints. Callers must not modify them.
func (m *Model) Footprints() []geo.Footprint { return m.footprints }

// Samples returns the cached wind samples. Callers must not modify them.
func (m *Model) Samples() []geo.WindSample { return m.samples }

// Observations returns the observations the model was built from.
func (m *Model) Observations() (birds, wind []domain.Observation) { return m.birds, m.wind }

// Columns returns a copy of every per-cell column.
func (m *Model) Columns() Columns { return m.cols.clone() }

// BuiltAt is when the build finished.
func (m *Model) BuiltAt() time.Time { return m.builtAt }

// CellView is one cell as seen by a renderer.
type CellView struct {
	ID        int
	Polygon   geom.Polygon
	BirdRisk  float64
	WindSpeed float64
	Value     float64
}

// Snapshot is a read-only copy of the map for rendering. Selected holds the
// selected layer's column, indexed like Cells.
type Snapshot struct {
	Layer        domain.Layer
	Coefficients domain.CoefficientSet
	BuiltAt      time.Time
	Cells        []CellView
	Selected     []float64
}

// Snapshot copies the current state.
func (m *Model) Snapshot() Snapshot {
	cells := make([]CellView, m.grid.Len())
	for i, c := range m.grid.Cells {
		cells[i] = CellView{
			ID:        c.ID,
			Polygon:   copyPolygon(c.Polygon),
			BirdRisk:  m.cols.BirdRisk[i],
			WindSpeed: m.cols.WindSpeed[i],
			Value:     m.cols.Value[i],
		}
	}
	return Snapshot{
		Layer:        m.layer,
		Coefficients: m.coeffs,
		BuiltAt:      m.builtAt,
		Cells:        cells,
		Selected:     clone(m.cols.Layer(m.layer)),
	}
}

// RebuildAtResolution returns a new model at gridSize using the installed
// Resolution.
func (m *Model) RebuildAtResolution(ctx context.Context, gridSize float64) (*Model, error) {
	if m.resolution == nil {
		return nil, fmt.Errorf("rebuild at resolution: %w", domain.ErrNotImplemented)
	}
	return m.resolution.Rebuild(ctx, m, gridSize)
}

// FindBestSites returns up to n cell IDs from the installed SiteSearch.
func (m *Model) FindBestSites(ctx context.Context, n int) ([]int, error) {
	if m.sites == nil {
		return nil, fmt.Errorf("find best sites: %w", domain.ErrNotImplemented)
	}
	if n <= 0 {
		return nil, errors.New("site count must be positive")
	}
	return m.sites.FindBestSites(ctx, m.Snapshot(), n)
}

func copyPolygon(p geom.Polygon) geom.Polygon {
	out := make(geom.Polygon, len(p))
	for i, ring := range p {
		out[i] = append([]geom.Point(nil), ring...)
	}
	return out
}

func clone(s []float64) []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
