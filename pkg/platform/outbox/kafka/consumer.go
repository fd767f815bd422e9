package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is one consumed record.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Handler processes a message. A nil return commits it; an error leaves the
// record uncommitted so it is redelivered after a restart or rebalance.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer reads topics in a consumer group and commits after each handled
// poll.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, group string, topics []string, handler Handler, logger *slog.Logger, opts ...kgo.Opt) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka consumer requires at least one broker")
	}
	opts = append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

type partitionKey struct {
	topic     string
	partition int32
}

// Run consumes until ctx is cancelled. After a failure the rest of that
// partition's batch is left uncommitted too, so offsets never pass it.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil || fetches.IsClientClosed() {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "kafka fetch failed", "topic", topic, "partition", partition, "error", err)
		})

		var handled []*kgo.Record
		failed := map[partitionKey]bool{}
		fetches.EachRecord(func(r *kgo.Record) {
			key := partitionKey{r.Topic, r.Partition}
			if failed[key] {
				return
			}
			if err := c.handler.Handle(ctx, toMessage(r)); err != nil {
				failed[key] = true
				c.logger.ErrorContext(ctx, "kafka message not handled",
					"topic", r.Topic, "partition", r.Partition, "offset", r.Offset, "error", err)
				return
			}
			handled = append(handled, r)
		})
		if len(handled) == 0 {
			continue
		}
		if err := c.client.CommitRecords(ctx, handled...); err != nil && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "kafka commit failed", "error", err)
		}
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}

func toMessage(r *kgo.Record) *Message {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{Topic: r.Topic, Key: r.Key, Value: r.Value, Headers: headers}
}
