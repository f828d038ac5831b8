// Package kafka publishes simulation results to the bulk-run sink topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wofost-input-service/internal/config"
	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

// Writer produces simulation results to a Kafka topic.
// It implements pipeline.ResultSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one simulation result and writes it keyed by run ID.
func (w *Writer) Publish(ctx context.Context, result domain.SimulationResult) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write result %s: %w", result.RunID, err)
	}
	w.logger.Debug("result published", "run_id", result.RunID, "grid_ref", result.GridRef)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SimulationResult into a Kafka message.
func serializeToMessage(result domain.SimulationResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize simulation result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "grid_ref", Value: []byte(result.GridRef)},
			{Key: "crop", Value: []byte(result.Crop)},
			{Key: "completed_at", Value: []byte(result.CompletedAt.Format(time.RFC3339))},
		},
	}, nil
}
