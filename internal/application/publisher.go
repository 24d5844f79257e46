package application

import (
	"context"

	"github.com/dormhub/service-booking/internal/platform/events"
	"github.com/dormhub/service-booking/internal/platform/kafka"
	"go.uber.org/zap"
)

// EventPublisher sends CloudEvents to a topic. *kafka.Producer implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, evt *kafka.CloudEvent) error
}

// outboundEvent is an event collected during a transaction and sent after commit.
type outboundEvent struct {
	topic     string
	eventType string
	key       string
	data      any
}

// publishAll sends events in order. Failures are logged, never returned: the
// state change has already been committed.
func publishAll(ctx context.Context, publisher EventPublisher, logger *zap.Logger, pending []outboundEvent) {
	if publisher == nil {
		return
	}
	for _, e := range pending {
		cloudEvent, err := kafka.NewCloudEvent(events.Source, e.eventType, e.data)
		if err != nil {
			logger.Error("failed to create cloud event",
				zap.String("event_type", e.eventType),
				zap.Error(err),
			)
			continue
		}
		cloudEvent.WithSubject(e.key)

		if err := publisher.PublishEvent(ctx, e.topic, cloudEvent); err != nil {
			logger.Error("failed to publish event",
				zap.String("topic", e.topic),
				zap.String("event_type", e.eventType),
				zap.String("booking_id", e.key),
				zap.Error(err),
			)
		}
	}
}
