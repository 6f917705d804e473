package events

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConsumer drains the provisioning topics for the worker process. A new
// consumer group starts at the earliest offset: user.registered events
// published before the first deploy must still seed users and their
// ONBOARDING status.
type KafkaConsumer struct {
	reader *kafka.Reader
}

func NewKafkaConsumer(brokers []string, groupID string, topics []string) (*KafkaConsumer, error) {
	switch {
	case len(brokers) == 0:
		return nil, errors.New("kafka consumer: no brokers configured")
	case groupID == "":
		return nil, errors.New("kafka consumer: no group id configured")
	case len(topics) == 0:
		return nil, errors.New("kafka consumer: no topics configured")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	return &KafkaConsumer{reader: reader}, nil
}

// Poll reads up to max messages under a single batch deadline. A quiet topic
// hands back whatever arrived in time instead of stalling the worker loop.
func (c *KafkaConsumer) Poll(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	batchCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	out := make([]Message, 0, max)
	for len(out) < max {
		msg, err := c.reader.ReadMessage(batchCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return out, nil
			}
			if errors.Is(err, context.Canceled) {
				return out, ctx.Err()
			}
			return out, err
		}
		out = append(out, Message{
			Topic:   msg.Topic,
			Payload: msg.Value,
		})
	}
	return out, nil
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
