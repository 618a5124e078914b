package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/MackenzieBowal/windwatch/internal/domain"
	"github.com/MackenzieBowal/windwatch/internal/mapmodel"
	"github.com/MackenzieBowal/windwatch/internal/observability"
)

// ObservationSource loads the two observation sets.
type ObservationSource interface {
	LoadBirds(ctx context.Context) ([]domain.Observation, error)
	LoadWind(ctx context.Context) ([]domain.Observation, error)
}

// Sink receives the built grid.
type Sink interface {
	Name() string
	Write(ctx context.Context, snap mapmodel.Snapshot) error
}

// Pipeline loads observations, builds the map and hands it to every sink.
type Pipeline struct {
	source  ObservationSource
	sinks   []Sink
	cfg     mapmodel.Config
	opts    []mapmodel.Option
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline. Options are passed through to mapmodel.Build.
func New(src ObservationSource, cfg mapmodel.Config, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, opts ...mapmodel.Option) *Pipeline {
	return &Pipeline{
		source:  src,
		sinks:   sinks,
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a map has been built.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("map has not been built yet")
	}
	return nil
}

// Run performs one build. Input and build failures return a nil model. When
// the build succeeds the model is returned even if a sink fails; sink errors
// are joined after every sink has been attempted.
func (p *Pipeline) Run(ctx context.Context) (*mapmodel.Model, error) {
	start := domain.Clock().Now()
	p.logger.Info("build started",
		"region", p.cfg.Region.String(),
		"grid_size", p.cfg.GridSize,
		"buffer_radius", p.cfg.BufferRadius,
	)

	m, err := p.build(ctx)
	if err != nil {
		p.metrics.BuildErrors.WithLabelValues(errorKind(err)).Inc()
		p.logger.Error("build failed", "error", err)
		return nil, err
	}

	p.metrics.BuildDuration.Observe(domain.Clock().Since(start).Seconds())
	p.metrics.GridCells.Set(float64(m.Grid().Len()))
	p.metrics.ModelReady.Set(1)
	p.ready.Store(true)

	return m, p.writeSinks(ctx, m.Snapshot())
}

func (p *Pipeline) build(ctx context.Context) (*mapmodel.Model, error) {
	birds, err := p.load(ctx, domain.KindBird, p.source.LoadBirds)
	if err != nil {
		return nil, err
	}
	wind, err := p.load(ctx, domain.KindWind, p.source.LoadWind)
	if err != nil {
		return nil, err
	}
	return mapmodel.Build(ctx, p.cfg, birds, wind, p.logger, p.opts...)
}

func (p *Pipeline) load(ctx context.Context, kind domain.Kind, fn func(context.Context) ([]domain.Observation, error)) ([]domain.Observation, error) {
	obs, err := fn(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s observations: %w", kind, err)
	}
	p.metrics.ObservationsLoaded.WithLabelValues(string(kind)).Add(float64(len(obs)))

	kept, dropped := domain.FilterToRegion(obs, p.cfg.Region)
	if dropped > 0 {
		p.metrics.ObservationsDropped.WithLabelValues(string(kind)).Add(float64(dropped))
		p.logger.Warn("observations outside region dropped",
			"kind", kind,
			"dropped", dropped,
			"kept", len(kept),
		)
	}
	return kept, nil
}

func (p *Pipeline) writeSinks(ctx context.Context, snap mapmodel.Snapshot) error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.Write(ctx, snap); err != nil {
			p.metrics.SinkWrites.WithLabelValues(s.Name(), "error").Inc()
			p.logger.Error("sink write failed", "sink", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name(), err))
			continue
		}
		p.metrics.SinkWrites.WithLabelValues(s.Name(), "success").Inc()
	}
	return errors.Join(errs...)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrDataLoad):
		return "data_load"
	case errors.Is(err, domain.ErrSchema):
		return "schema"
	case errors.Is(err, domain.ErrInvalidGridConfiguration):
		return "grid"
	case errors.Is(err, domain.ErrInsufficientObservationCoverage):
		return "coverage"
	case errors.Is(err, domain.ErrProjection):
		return "projection"
	default:
		return "other"
	}
}
