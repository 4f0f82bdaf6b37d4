package intake

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// submissionEvent is the shape the surrounding workflow publishes for each
// new citizen request. Only the timestamp matters here.
type submissionEvent struct {
	SubmittedAt string `json:"submitted_at"`
}

// Consumer reads submission events from Kafka and records their timestamps
// into a History.
type Consumer struct {
	reader  *kafka.Reader
	history *History
}

func NewConsumer(brokers []string, topic, groupID string, history *History) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, history: history}
}

// Start consumes until the context is canceled. A message that is not valid
// JSON or carries no parseable timestamp falls back to the broker's message
// time, so a malformed producer never stalls intake.
func (c *Consumer) Start(ctx context.Context) error {
	log.Printf("[intake] consumer started topic=%s", c.reader.Config().Topic)

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return err
		}

		t := m.Time
		var ev submissionEvent
		if err := json.Unmarshal(m.Value, &ev); err == nil && ev.SubmittedAt != "" {
			if parsed, perr := time.Parse(time.RFC3339, ev.SubmittedAt); perr == nil {
				t = parsed
			}
		}
		c.history.Record(t)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
