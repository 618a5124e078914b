package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "windwatch"

// Metrics holds the Prometheus collectors for map builds and the API.
type Metrics struct {
	BuildDuration prometheus.Histogram
	BuildErrors   *prometheus.CounterVec // labels: kind={data_load,schema,grid,coverage,projection,other}
	GridCells     prometheus.Gauge
	ModelReady    prometheus.Gauge

	ObservationsLoaded  *prometheus.CounterVec // labels: kind={bird,wind}
	ObservationsDropped *prometheus.CounterVec // labels: kind={bird,wind}

	// Recomputations counts coefficient updates that rescored the value column.
	Recomputations prometheus.Counter
	SinkWrites     *prometheus.CounterVec // labels: sink={geojson,kafka}, outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can create as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete map build from loading to scoring.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		BuildErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_errors_total",
			Help:      "Failed map builds by error kind.",
		}, []string{"kind"}),
		GridCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_cells",
			Help:      "Number of cells in the current map.",
		}),
		ModelReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_ready",
			Help:      "1 once a map has been built, 0 otherwise.",
		}),
		ObservationsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_loaded_total",
			Help:      "Observations read from input files by kind.",
		}, []string{"kind"}),
		ObservationsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_dropped_total",
			Help:      "Observations outside the region by kind.",
		}, []string{"kind"}),
		Recomputations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputations_total",
			Help:      "Coefficient updates applied to the current map.",
		}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_writes_total",
			Help:      "Grid writes by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.BuildDuration,
		m.BuildErrors,
		m.GridCells,
		m.ModelReady,
		m.ObservationsLoaded,
		m.ObservationsDropped,
		m.Recomputations,
		m.SinkWrites,
	}
}
