package events

import (
	"context"

	"github.com/andrumolt/transfer-ledger/internal/interfaces"
)

// NopPublisher discards every event. Used when no broker is configured.
type NopPublisher struct{}

// Publish implements interfaces.EventPublisher.
func (NopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

var _ interfaces.EventPublisher = NopPublisher{}
