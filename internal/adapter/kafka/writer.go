package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/air-quality-map/internal/config"
	"github.com/couchcryptid/air-quality-map/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes location selections to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured selection topic.
// Writes are asynchronous; delivery failures are logged from the completion
// callback.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSelectionTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafkago.Message, err error) {
			if err != nil {
				logger.Warn("publish selections failed", "error", err, "count", len(messages))
			}
		},
	}
	return &Writer{writer: w, logger: logger}
}

// NewSyncWriter is like NewWriter but blocks until the broker acknowledges
// each write.
func NewSyncWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := NewWriter(cfg, logger)
	w.writer.Async = false
	w.writer.Completion = nil
	w.writer.RequiredAcks = kafkago.RequireAll
	return w
}

// Publish serializes and sends one selection. Messages are keyed by session
// so a session's selections stay ordered within a partition.
func (w *Writer) Publish(ctx context.Context, event domain.SelectionEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish selection: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SelectionEvent into a Kafka message.
func serializeToMessage(event domain.SelectionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize selection event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.SessionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(event.Source)},
			{Key: "selected_at", Value: []byte(event.SelectedAt.Format(time.RFC3339))},
		},
	}, nil
}
