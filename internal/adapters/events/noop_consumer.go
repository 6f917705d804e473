package events

import "context"

// NoopConsumer stands in when no Kafka brokers are configured; the worker
// process then only runs the outbox and sweep loops.
type NoopConsumer struct{}

func NewNoopConsumer() *NoopConsumer {
	return &NoopConsumer{}
}

func (n *NoopConsumer) Poll(_ context.Context, _ int) ([]Message, error) {
	return nil, nil
}
