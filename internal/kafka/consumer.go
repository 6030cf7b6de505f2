package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one booking event. A returned error makes the consumer
// call it again for the same event after a backoff.
type Handler func(ctx context.Context, event models.BookingEvent) error

const (
	defaultRetryBackoff = 500 * time.Millisecond
	maxRetryBackoff     = 30 * time.Second
)

type Consumer struct {
	Reader MessageReader
	Logger *logger.Logger
	// RetryBackoff is the first pause after a handler failure. It doubles per
	// attempt up to 30s.
	RetryBackoff time.Duration
}

// NewConsumer joins groupID and reads every topic in topics.
func NewConsumer(brokers, topics []string, groupID string, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.Nop()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{Reader: reader, Logger: log}
}

// Run consumes until ctx is cancelled. Malformed messages are logged and
// committed so they do not block the partition. Group offsets commit
// cumulatively, so a handler failure is retried in place and later messages
// wait for it.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	c.Logger.LogKafka("CONSUME", "booking events", "consumer started")
	for {
		msg, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		var event models.BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.Logger.Warn("KAFKA", fmt.Sprintf("skipping malformed message on %s at offset %d: %v", msg.Topic, msg.Offset, err))
		} else if err := c.deliver(ctx, event, handle); err != nil {
			c.Logger.Warn("KAFKA", fmt.Sprintf("stopped before %s at offset %d was handled", event.Reference, msg.Offset))
			return nil
		}

		if err := c.Reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

// deliver calls handle until it succeeds. It only gives up, with ctx.Err(),
// when the consumer is stopped.
func (c *Consumer) deliver(ctx context.Context, event models.BookingEvent, handle Handler) error {
	backoff := c.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	for attempt := 1; ; attempt++ {
		err := handle(ctx, event)
		if err == nil {
			return nil
		}
		c.Logger.Error("KAFKA", fmt.Sprintf("handler failed for %s (attempt %d), retrying in %s: %v", event.Reference, attempt, backoff, err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if backoff *= 2; backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

func (c *Consumer) Close() error {
	return c.Reader.Close()
}
