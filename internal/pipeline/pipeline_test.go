package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MackenzieBowal/windwatch/internal/adapter/geojson"
	"github.com/MackenzieBowal/windwatch/internal/adapter/jsonl"
	"github.com/MackenzieBowal/windwatch/internal/domain"
	"github.com/MackenzieBowal/windwatch/internal/mapmodel"
	"github.com/MackenzieBowal/windwatch/internal/observability"
	"github.com/MackenzieBowal/windwatch/internal/pipeline"
)

var _ sharedobs.ReadinessChecker = (*pipeline.Pipeline)(nil)

// --- mocks ---

type mockSource struct {
	birds   []domain.Observation
	wind    []domain.Observation
	birdErr error
	windErr error
}

func (m *mockSource) LoadBirds(_ context.Context) ([]domain.Observation, error) {
	return m.birds, m.birdErr
}

func (m *mockSource) LoadWind(_ context.Context) ([]domain.Observation, error) {
	return m.wind, m.windErr
}

type mockSink struct {
	name  string
	err   error
	snaps []mapmodel.Snapshot
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Write(_ context.Context, snap mapmodel.Snapshot) error {
	m.snaps = append(m.snaps, snap)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testConfig(t *testing.T) mapmodel.Config {
	t.Helper()
	r, err := domain.NewRegion(49.0, 50.0, -112.0, -111.0)
	require.NoError(t, err)
	cfg := mapmodel.DefaultConfig(r)
	cfg.GridSize = 25000
	return cfg
}

func fileSource() jsonl.FileSource {
	return jsonl.FileSource{
		BirdPath: filepath.Join("testdata", "birds.jsonl"),
		WindPath: filepath.Join("testdata", "wind.jsonl"),
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "grid.geojson")
	sink := &mockSink{name: "mock"}
	sinks := []pipeline.Sink{geojson.NewFileWriter(out, discardLogger()), sink}

	p := pipeline.New(fileSource(), testConfig(t), sinks, discardLogger(), newTestMetrics())
	require.Error(t, p.CheckReadiness(context.Background()))

	m, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NoError(t, p.CheckReadiness(context.Background()))

	// Two of the three sightings and one wind sample lie outside the region.
	birds, wind := m.Observations()
	assert.Len(t, birds, 1)
	assert.Len(t, wind, 121)

	require.Len(t, sink.snaps, 1)
	assert.Len(t, sink.snaps[0].Cells, m.Grid().Len())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cells, err := geojson.Decode(f)
	require.NoError(t, err)
	assert.Len(t, cells, m.Grid().Len())
}

func TestPipeline_Run_BirdRiskFromFixture(t *testing.T) {
	p := pipeline.New(fileSource(), testConfig(t), nil, discardLogger(), newTestMetrics())

	m, err := p.Run(context.Background())
	require.NoError(t, err)

	cols := m.Columns()
	touched := 0
	for _, v := range cols.BirdRiskRaw {
		if v > 0 {
			touched++
			assert.Equal(t, 2.0, v)
		}
	}
	assert.GreaterOrEqual(t, touched, 1)
	assert.Contains(t, cols.BirdRisk, 1.0)
}

func TestPipeline_Run_LoadError(t *testing.T) {
	src := &mockSource{birdErr: domain.ErrDataLoad}
	sink := &mockSink{name: "mock"}
	p := pipeline.New(src, testConfig(t), []pipeline.Sink{sink}, discardLogger(), newTestMetrics())

	m, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrDataLoad)
	assert.Nil(t, m)
	assert.Empty(t, sink.snaps)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_SchemaErrorFromFile(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "wind.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte(`{"lat":49.5,"lon":-111.5}`+"\n"), 0o600))
	src := jsonl.FileSource{BirdPath: filepath.Join("testdata", "birds.jsonl"), WindPath: bad}

	p := pipeline.New(src, testConfig(t), nil, discardLogger(), newTestMetrics())
	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrSchema)
}

func TestPipeline_Run_NoWindInRegion(t *testing.T) {
	src := &mockSource{wind: []domain.Observation{{Lat: 10, Lon: 10, Magnitude: 5}}}
	p := pipeline.New(src, testConfig(t), nil, discardLogger(), newTestMetrics())

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrInsufficientObservationCoverage)
}

func TestPipeline_Run_SinkFailureStillReturnsModel(t *testing.T) {
	failing := &mockSink{name: "failing", err: errors.New("disk full")}
	after := &mockSink{name: "after"}
	src := &mockSource{wind: []domain.Observation{{Lat: 49.5, Lon: -111.5, Magnitude: 5}}}

	p := pipeline.New(src, testConfig(t), []pipeline.Sink{failing, after}, discardLogger(), newTestMetrics())
	m, err := p.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing sink")
	require.NotNil(t, m)
	assert.Len(t, after.snaps, 1, "later sinks still run")
	assert.NoError(t, p.CheckReadiness(context.Background()))
}
