package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/air-quality-map/internal/config"
	"github.com/couchcryptid/air-quality-map/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := domain.SelectionEvent{
		SessionID:  "sess-1",
		Source:     domain.SelectionSearch,
		Location:   domain.Location{Name: "Toronto, Canada", Lat: 43.6532, Lon: -79.3832, AQI: domain.IntPtr(42), Condition: "Clear"},
		Band:       "good",
		SelectedAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("sess-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"source":"search"`)
	assert.Contains(t, string(msg.Value), `"band":"good"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "source", msg.Headers[0].Key)
	assert.Equal(t, []byte("search"), msg.Headers[0].Value)
	assert.Equal(t, "selected_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.SelectionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "Toronto, Canada", decoded.Location.Name)
	require.NotNil(t, decoded.Location.AQI)
	assert.Equal(t, 42, *decoded.Location.AQI)
}

func TestNewWriter_Config(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"b1:9092", "b2:9092"}, KafkaSelectionTopic: "map-selections"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	async := NewWriter(cfg, logger)
	assert.Equal(t, "map-selections", async.writer.Topic)
	assert.True(t, async.writer.Async)
	assert.NotNil(t, async.writer.Completion)
	assert.IsType(t, &kafkago.Hash{}, async.writer.Balancer)

	sync := NewSyncWriter(cfg, logger)
	assert.False(t, sync.writer.Async)
	assert.Equal(t, kafkago.RequireAll, sync.writer.RequiredAcks)
}
