package interfaces

import "context"

// EventPublisher pushes domain events to downstream consumers. Publishing is
// best-effort from the engine's point of view; a failed publish never changes
// a transfer's outcome.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}
