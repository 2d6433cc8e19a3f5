// Package messaging holds event publisher implementations that do not
// depend on an external broker.
package messaging

import (
	"context"

	"arbor/application/ports"
	"arbor/domain/events"
)

// NoopPublisher discards every event. Used when no event bus is
// configured.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that drops events
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

var _ ports.EventPublisher = (*NoopPublisher)(nil)

// Publish drops the batch
func (p *NoopPublisher) Publish(ctx context.Context, batch []events.DomainEvent) error {
	return nil
}
