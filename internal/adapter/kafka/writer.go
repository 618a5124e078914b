package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/MackenzieBowal/windwatch/internal/config"
	"github.com/MackenzieBowal/windwatch/internal/domain"
	"github.com/MackenzieBowal/windwatch/internal/mapmodel"
)

// chunkSize caps the messages handed to one WriteMessages call.
const chunkSize = 500

// CellMessage is the JSON value published for each grid cell.
type CellMessage struct {
	ID        int          `json:"id"`
	BirdRisk  float64      `json:"birdRisk"`
	WindSpeed float64      `json:"windSpeed"`
	Value     float64      `json:"value"`
	Layer     domain.Layer `json:"layer"`
	BuiltAt   time.Time    `json:"built_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes a built grid to a Kafka topic, one message per cell
// keyed by cell ID.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Write publishes every cell of snap.
func (w *Writer) Write(ctx context.Context, snap mapmodel.Snapshot) error {
	msgs := make([]kafkago.Message, 0, len(snap.Cells))
	for _, c := range snap.Cells {
		msg, err := serializeToMessage(c, snap.Layer, snap.BuiltAt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	for start := 0; start < len(msgs); start += chunkSize {
		end := min(start+chunkSize, len(msgs))
		if err := w.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return fmt.Errorf("publish cells %d-%d: %w", start, end-1, err)
		}
	}
	w.logger.Info("grid published", "cells", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one cell into a Kafka message.
func serializeToMessage(c mapmodel.CellView, layer domain.Layer, builtAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(CellMessage{
		ID:        c.ID,
		BirdRisk:  c.BirdRisk,
		WindSpeed: c.WindSpeed,
		Value:     c.Value,
		Layer:     layer,
		BuiltAt:   builtAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize cell %d: %w", c.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(c.ID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "layer", Value: []byte(layer)},
			{Key: "built_at", Value: []byte(builtAt.Format(time.RFC3339))},
		},
	}, nil
}
