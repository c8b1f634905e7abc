package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer publishes CloudEvents to Kafka, keyed by subject so events of one
// booking stay ordered within a partition.
type Producer struct {
	writer messageWriter
	logger *zap.Logger
}

// NewProducer creates a Producer writing to the given brokers. The topic is
// chosen per message.
func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	return &Producer{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

// PublishEvent writes the event to topic.
func (p *Producer) PublishEvent(ctx context.Context, topic string, ce *CloudEvent) error {
	value, err := json.Marshal(ce)
	if err != nil {
		return fmt.Errorf("failed to marshal cloud event: %w", err)
	}
	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(ce.Subject),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "ce_type", Value: []byte(ce.Type)},
			{Key: "ce_id", Value: []byte(ce.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", topic, err)
	}
	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("event_type", ce.Type),
		zap.String("subject", ce.Subject),
	)
	return nil
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// LogProducer stands in for Kafka when no brokers are configured. Events are
// only logged.
type LogProducer struct {
	logger *zap.Logger
}

// NewLogProducer creates a LogProducer.
func NewLogProducer(logger *zap.Logger) *LogProducer {
	return &LogProducer{logger: logger}
}

// PublishEvent logs the event.
func (p *LogProducer) PublishEvent(_ context.Context, topic string, ce *CloudEvent) error {
	p.logger.Info("event (kafka disabled)",
		zap.String("topic", topic),
		zap.String("event_type", ce.Type),
		zap.String("subject", ce.Subject),
		zap.ByteString("data", ce.Data),
	)
	return nil
}

// Close is a no-op.
func (p *LogProducer) Close() error { return nil }
