package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"github.com/couchcryptid/fuel-price-etl/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces one message per station to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the station topic.
func NewWriter(brokers []string, topic string, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// Load serializes every station of the document and publishes them in a
// single WriteMessages call. Messages are keyed by station id so successive
// runs for the same station land on the same partition.
func (w *Writer) Load(ctx context.Context, doc domain.Document) error {
	if len(doc.Stations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(doc.Stations))
	for i := range doc.Stations {
		msg, err := serializeToMessage(doc.Stations[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish stations: %w", err)
	}
	w.metrics.MessagesProduced.Add(float64(len(msgs)))
	w.logger.Info("stations published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DenseStation into a Kafka message.
func serializeToMessage(station domain.DenseStation) (kafkago.Message, error) {
	data, err := json.Marshal(station)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station %d: %w", station.ID, err)
	}
	var windowEnd string
	if n := len(station.OpeningDates); n > 0 {
		windowEnd = station.OpeningDates[n-1]
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(station.ID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "postal_code", Value: []byte(station.PostalCode)},
			{Key: "window_end", Value: []byte(windowEnd)},
		},
	}, nil
}
