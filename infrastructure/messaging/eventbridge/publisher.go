// Package eventbridge publishes domain events to an EventBridge bus.
package eventbridge

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"arbor/application/ports"
	"arbor/domain/events"
)

// maxBatchSize is the PutEvents request limit
const maxBatchSize = 10

// Publisher implements ports.EventPublisher on EventBridge
type Publisher struct {
	client  *eventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewPublisher creates an EventBridge publisher for the given bus
func NewPublisher(client *eventbridge.Client, busName string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

var _ ports.EventPublisher = (*Publisher)(nil)

// Publish sends the batch in chunks of the PutEvents limit. Entries
// that fail are logged and skipped; delivery is best-effort.
func (p *Publisher) Publish(ctx context.Context, batch []events.DomainEvent) error {
	for start := 0; start < len(batch); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(batch) {
			end = len(batch)
		}

		entries := make([]types.PutEventsRequestEntry, 0, end-start)
		for _, event := range batch[start:end] {
			detail, err := json.Marshal(event)
			if err != nil {
				p.logger.Warn("failed to marshal domain event",
					zap.String("event_type", event.GetEventType()),
					zap.Error(err),
				)
				continue
			}
			entries = append(entries, types.PutEventsRequestEntry{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(events.Source),
				DetailType:   aws.String(event.GetEventType()),
				Detail:       aws.String(string(detail)),
			})
		}
		if len(entries) == 0 {
			continue
		}

		out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
		if err != nil {
			return err
		}
		if out.FailedEntryCount > 0 {
			p.logger.Warn("some events failed to publish",
				zap.Int32("failed", out.FailedEntryCount),
			)
		}
	}
	return nil
}
