//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/wofost-input-service/internal/adapter/kafka"
	"github.com/couchcryptid/wofost-input-service/internal/config"
	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/observability"
	"github.com/couchcryptid/wofost-input-service/internal/pipeline"
)

const testSinkTopic = "test-run-results"

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// startKafka launches a single-node Kafka broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker address")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func sampleResult(runID string) domain.SimulationResult {
	return domain.SimulationResult{
		RunID:   runID,
		GridRef: "SW65902670",
		Crop:    "wheat",
		Yield:   8123.5,
		Rows: []domain.ResultRow{
			{Day: time.Date(2020, time.August, 1, 0, 0, 0, 0, time.UTC), DVS: 1.8, LAI: 3.2, TAGP: 14200, TWSO: 8123.5, SM: 0.28},
		},
		CompletedAt: time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC),
	}
}

func readResult(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (domain.SimulationResult, map[string]string) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var result domain.SimulationResult
	require.NoError(t, json.Unmarshal(msg.Value, &result), "unmarshal sink message")
	return result, headers
}

// TestWriterPublishesResult verifies the sink adapter round-trips a
// simulation result through a real broker with the expected key and headers.
func TestWriterPublishesResult(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.Publish(ctx, sampleResult("run-SW65902670-2020")))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	result, headers := readResult(ctx, t, consumer)
	assert.Equal(t, "run-SW65902670-2020", result.RunID)
	assert.Equal(t, "SW65902670", result.GridRef)
	assert.Equal(t, "wheat", result.Crop)
	assert.InDelta(t, 8123.5, result.Yield, 0.001)
	require.Len(t, result.Rows, 1)
	assert.InDelta(t, 0.28, result.Rows[0].SM, 0.001)

	assert.Equal(t, "SW65902670", headers["grid_ref"])
	assert.Equal(t, "wheat", headers["crop"])
	_, err := time.Parse(time.RFC3339, headers["completed_at"])
	assert.NoError(t, err, "completed_at should be valid RFC3339")
}

type stubRunner struct{}

func (stubRunner) Run(_ context.Context, req pipeline.RunRequest) (domain.SimulationResult, error) {
	if req.ParcelID == 0 {
		return domain.SimulationResult{}, domain.ErrLocationNotFound
	}
	result := sampleResult(fmt.Sprintf("run-%d-%d", req.ParcelID, req.Calendar.CampaignYear))
	result.Crop = req.Calendar.Crop
	return result, nil
}

// TestPipelinePublishesToKafka wires CSVSource, a stub runner, and the real
// Kafka sink, and verifies every parseable run lands on the sink topic.
func TestPipelinePublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	runFile := strings.Join([]string{
		"parcel_id,grid_ref,weather,soil,start,end,crop,variety,campaign_year,sowing_date",
		"21616,,NASA,SoilGrids,2020-03-01,2020-09-30,wheat,Winter_wheat_106,2020,2020-03-15",
		"30492,,NASA,SoilGrids,2020-04-01,2020-10-31,potato,Fontane,2020,2020-04-20",
	}, "\n")
	source, err := pipeline.NewCSVSource(strings.NewReader(runFile))
	require.NoError(t, err)

	p := pipeline.New(source, stubRunner{}, writer, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, p.Run(ctx))
	assert.NoError(t, p.CheckReadiness(ctx), "ready after publishing")

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	first, _ := readResult(ctx, t, consumer)
	second, _ := readResult(ctx, t, consumer)

	crops := map[string]string{first.RunID: first.Crop, second.RunID: second.Crop}
	assert.Equal(t, map[string]string{
		"run-21616-2020": "wheat",
		"run-30492-2020": "potato",
	}, crops)
}
