package events

import (
	"context"

	"github.com/glowbook/service-booking/internal/domain"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentStatusRecorder applies payment outcomes to bookings.
type PaymentStatusRecorder interface {
	RecordPaymentAuthorized(ctx context.Context, bookingID uuid.UUID, paymentRef string) error
	RecordPaymentFailed(ctx context.Context, bookingID uuid.UUID, reason string) error
}

// PaymentEventConsumer listens to payment events and records the payment
// status on the matching booking.
type PaymentEventConsumer struct {
	consumer *Consumer
	recorder PaymentStatusRecorder
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	recorder PaymentStatusRecorder,
	logger *zap.Logger,
) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		consumer: NewConsumer(brokers, groupID, TopicPaymentEvents, logger),
		recorder: recorder,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case PaymentAuthorized:
		return c.handleAuthorized(ctx, cloudEvent)
	case PaymentFailed:
		return c.handleFailed(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handleAuthorized(ctx context.Context, cloudEvent CloudEvent) error {
	var evt PaymentAuthorizedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentAuthorizedEvent data", zap.Error(err))
		return nil
	}

	c.logger.Info("processing payment authorized event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID),
	)

	err := c.recorder.RecordPaymentAuthorized(ctx, evt.BookingID, evt.PaymentRef)
	return c.settle(err, evt.BookingID, cloudEvent.Type)
}

func (c *PaymentEventConsumer) handleFailed(ctx context.Context, cloudEvent CloudEvent) error {
	var evt PaymentFailedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentFailedEvent data", zap.Error(err))
		return nil
	}

	c.logger.Info("processing payment failed event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("reason", evt.Reason),
	)

	err := c.recorder.RecordPaymentFailed(ctx, evt.BookingID, evt.Reason)
	return c.settle(err, evt.BookingID, cloudEvent.Type)
}

// settle decides whether a handler error is worth a retry. Domain rejections
// (unknown booking, stale transition) will never succeed and are dropped;
// version conflicts and infrastructure errors are retried.
func (c *PaymentEventConsumer) settle(err error, bookingID uuid.UUID, eventType string) error {
	if err == nil {
		return nil
	}
	if domainErr, ok := domain.AsError(err); ok && domainErr.Kind != domain.KindConflict {
		c.logger.Warn("payment event rejected by booking",
			zap.String("booking_id", bookingID.String()),
			zap.String("event_type", eventType),
			zap.String("code", domainErr.Code),
			zap.Error(err),
		)
		return nil
	}
	c.logger.Error("failed to apply payment event",
		zap.String("booking_id", bookingID.String()),
		zap.String("event_type", eventType),
		zap.Error(err),
	)
	return err
}
