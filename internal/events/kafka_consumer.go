package events

import (
	"context"
	"errors"

	"github.com/dormhub/service-booking/internal/application"
	"github.com/dormhub/service-booking/internal/domain/ledger"
	"github.com/dormhub/service-booking/internal/platform/domain"
	protoEvents "github.com/dormhub/service-booking/internal/platform/events"
	"github.com/dormhub/service-booking/internal/platform/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ActorPaymentProvider is recorded as the actor of collections reported by
// the payment provider.
const ActorPaymentProvider = "payment_provider"

// PaymentRecorder applies a payment status change to a booking.
type PaymentRecorder interface {
	UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, actor ledger.Actor, req application.UpdatePaymentStatusRequest) (*application.PaymentView, error)
}

// PaymentEventConsumer listens to payment events and records collections
// against the booking ledger.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	recorder PaymentRecorder
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	recorder PaymentRecorder,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, protoEvents.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		recorder: recorder,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.HandleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

// HandleMessage dispatches one message from the payment topic.
func (c *PaymentEventConsumer) HandleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case protoEvents.PaymentCollected:
		return c.handlePaymentCollected(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentCollected(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt protoEvents.PaymentCollectedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentCollectedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment collected event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID),
		zap.String("payment_status", evt.PaymentStatus),
		zap.String("amount", evt.Amount.StringFixed(2)),
	)

	req := application.UpdatePaymentStatusRequest{
		PaymentStatus: evt.PaymentStatus,
		CollectionID:  evt.PaymentID,
	}
	if evt.Amount.IsPositive() {
		delta := evt.Amount
		req.AmountCollectedDelta = &delta
	}

	actor := ledger.Actor{Type: ActorPaymentProvider, ID: evt.PaymentID}
	view, err := c.recorder.UpdatePaymentStatus(ctx, evt.BookingID, actor, req)
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) && domainErr.Code != domain.CodeConflict {
			// The ledger refused the collection; redelivery cannot change that.
			c.logger.Warn("payment collection rejected",
				zap.String("booking_id", evt.BookingID.String()),
				zap.String("code", domainErr.Code),
				zap.String("reason", domainErr.Message),
			)
			return nil
		}
		c.logger.Error("failed to record payment collection",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("payment collection recorded",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_status", view.PaymentStatus),
		zap.Bool("already_applied", view.AlreadyApplied),
	)
	return nil
}
