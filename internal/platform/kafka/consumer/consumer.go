// Package consumer wraps a franz-go consumer group behind a per-message
// handler interface. Commits are manual: a record is committed only after
// its handler returned nil, so store failures lead to redelivery instead of
// silent loss.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is one consumed record, decoupled from the client library so
// handlers stay testable.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// Handler processes a single message. Returning nil commits the offset;
// returning an error stops the consumer and leaves the message for
// redelivery.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

func New(brokers []string, group string, topics []string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until the context is canceled or a handler fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if !errors.Is(err, context.Canceled) {
				c.logger.Error("fetch error",
					"topic", topic,
					"partition", partition,
					"error", err,
				)
			}
		})

		for _, record := range fetches.Records() {
			msg := &Message{
				Topic:     record.Topic,
				Partition: record.Partition,
				Offset:    record.Offset,
				Key:       record.Key,
				Value:     record.Value,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				return fmt.Errorf("handle message from %s: %w", record.Topic, err)
			}
			if err := c.client.CommitRecords(ctx, record); err != nil {
				return fmt.Errorf("commit offset: %w", err)
			}
		}
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
