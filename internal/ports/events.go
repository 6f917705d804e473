package ports

import "context"

// EventPublisher delivers outbox records to the event bus. eventType doubles
// as the destination topic unless the adapter remaps it; partitionKey keeps
// events for one task or user on a single partition, preserving their order.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
