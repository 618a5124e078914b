//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/MackenzieBowal/windwatch/internal/adapter/kafka"
	"github.com/MackenzieBowal/windwatch/internal/config"
	"github.com/MackenzieBowal/windwatch/internal/domain"
	"github.com/MackenzieBowal/windwatch/internal/mapmodel"
	"github.com/MackenzieBowal/windwatch/internal/observability"
	"github.com/MackenzieBowal/windwatch/internal/pipeline"
)

const testSinkTopic = "test-grid-cells"

type staticSource struct {
	birds, wind []domain.Observation
}

func (s staticSource) LoadBirds(context.Context) ([]domain.Observation, error) { return s.birds, nil }
func (s staticSource) LoadWind(context.Context) ([]domain.Observation, error)  { return s.wind, nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("windwatch-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestPipelinePublishesGrid builds a small map and checks that every cell
// reaches the sink topic with its key and headers.
func TestPipelinePublishesGrid(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSinkTopic: testSinkTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	region, err := domain.NewRegion(49.0, 50.0, -112.0, -111.0)
	require.NoError(t, err)
	mcfg := mapmodel.DefaultConfig(region)
	mcfg.GridSize = 50000

	var wind []domain.Observation
	for lat := 49.0; lat <= 50.0; lat += 0.1 {
		for lon := -112.0; lon <= -111.0; lon += 0.1 {
			wind = append(wind, domain.Observation{Lat: lat, Lon: lon, Magnitude: 6})
		}
	}
	src := staticSource{
		birds: []domain.Observation{{Lat: 49.5, Lon: -111.5, Magnitude: 2}},
		wind:  wind,
	}

	p := pipeline.New(src, mcfg, []pipeline.Sink{writer}, discardLogger(), observability.NewMetricsForTesting())
	m, err := p.Run(ctx)
	require.NoError(t, err)
	n := m.Grid().Len()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSinkTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	seen := make(map[string]bool, n)
	for len(seen) < n {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		var cell kafka.CellMessage
		require.NoError(t, json.Unmarshal(msg.Value, &cell))
		assert.Equal(t, strconv.Itoa(cell.ID), string(msg.Key))
		assert.Equal(t, domain.LayerValue, cell.Layer)
		assert.GreaterOrEqual(t, cell.Value, 0.0)
		assert.LessOrEqual(t, cell.Value, 1.0)

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "value", headers["layer"])
		assert.NotEmpty(t, headers["built_at"])
		seen[string(msg.Key)] = true
	}
	assert.Len(t, seen, n)
}
