package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topics config.TopicConfig
	Logger *logger.Logger
}

// NewProducer creates a writer that picks the topic per message, so one
// producer serves every booking topic.
func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	if log == nil {
		log = logger.Nop()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

// TopicFor maps an event type onto its configured topic.
func (p *Producer) TopicFor(t models.BookingEventType) (string, error) {
	switch t {
	case models.EventBookingCreated:
		return p.Topics.BookingCreated, nil
	case models.EventBookingCancelled:
		return p.Topics.BookingCancelled, nil
	}
	return "", fmt.Errorf("no topic for event type %q", t)
}

// PublishBookingEvent streams a booking state change to Kafka, keyed by
// booking reference so events for one booking stay ordered.
func (p *Producer) PublishBookingEvent(ctx context.Context, event models.BookingEvent) error {
	topic, err := p.TopicFor(event.Type)
	if err != nil {
		return err
	}
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	if err := p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.Reference),
		Value: msgBytes,
	}); err != nil {
		p.Logger.Error("KAFKA", fmt.Sprintf("publish %s to %s failed: %v", event.Reference, topic, err))
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.Logger.LogKafka("PUBLISH", topic, event.Reference)
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
