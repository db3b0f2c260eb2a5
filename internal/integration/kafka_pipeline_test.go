//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/fuel-price-etl/internal/adapter/feed"
	"github.com/couchcryptid/fuel-price-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/fuel-price-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"github.com/couchcryptid/fuel-price-etl/internal/observability"
	"github.com/couchcryptid/fuel-price-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-fuel-stations"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("fuel-etl-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	brokers, err := ctr.Brokers(ctx)
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
	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	}))
}

// TestPipelineToKafka runs the sample feed through the pipeline with both
// sinks and reads every station back from the topic.
func TestPipelineToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter([]string{broker}, testTopic, metrics, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	out := filepath.Join(t.TempDir(), "data.json")
	src := feed.NewFileSource(filepath.Join("..", "adapter", "feed", "testdata", "sample.xml"))
	p := pipeline.New(
		src,
		pipeline.NewResolver(nil, 0, discardLogger(), metrics),
		pipeline.Loaders{jsonfile.NewWriter(out, discardLogger()), writer},
		clockwork.NewFakeClockAt(time.Date(2023, time.January, 5, 6, 0, 0, 0, time.UTC)),
		pipeline.Options{WindowDays: 4},
		discardLogger(),
		metrics,
	)

	doc, err := p.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Stations, 2)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := make(map[string]domain.DenseStation)
	for len(got) < len(doc.Stations) {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from station topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "2023-01-04", headers["window_end"])
		assert.Equal(t, "01000", headers["postal_code"])

		var station domain.DenseStation
		require.NoError(t, json.Unmarshal(msg.Value, &station), "unmarshal station message")
		assert.Equal(t, string(msg.Key), strconv.Itoa(station.ID))
		got[string(msg.Key)] = station
	}

	assert.Contains(t, got, "1000001")
	assert.Contains(t, got, "1000003")
	assert.Len(t, got["1000001"].Carburants[domain.FuelGazole], 4)

	fromFile, err := jsonfile.Read(out)
	require.NoError(t, err)
	assert.Equal(t, doc, fromFile)
}
