// Package kafka publishes outbox entries with franz-go.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"parcours/pkg/platform/outbox"
)

// Publisher produces entries to Kafka, keyed by aggregate id so the history
// of one doctorate stays ordered within a partition.
type Publisher struct {
	client *kgo.Client
	topics map[string]string
}

// New connects to brokers. topics maps outbox topics to Kafka topic names;
// unmapped topics are produced as-is.
func New(brokers []string, topics map[string]string, opts ...kgo.Opt) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	opts = append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{client: client, topics: topics}, nil
}

func (p *Publisher) topic(name string) string {
	if t, ok := p.topics[name]; ok && t != "" {
		return t
	}
	return name
}

// EnsureTopics creates the mapped topics when missing.
func (p *Publisher) EnsureTopics(ctx context.Context, partitions int32, replication int16) error {
	adm := kadm.NewClient(p.client)
	names := make([]string, 0, len(p.topics))
	for _, t := range p.topics {
		names = append(names, t)
	}
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, names...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, r := range resp.Sorted() {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

func (p *Publisher) Publish(ctx context.Context, entries []outbox.Entry) error {
	records := make([]*kgo.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, &kgo.Record{
			Topic: p.topic(e.Topic),
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(e.EventType)},
				{Key: "aggregate_type", Value: []byte(e.AggregateType)},
				{Key: "entry_id", Value: []byte(e.ID.String())},
			},
		})
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce outbox entries: %w", err)
	}
	return nil
}

// Health pings the brokers.
func (p *Publisher) Health(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Publisher) Close() {
	p.client.Close()
}
