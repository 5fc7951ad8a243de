// Package publisher ships committed audit entries to Kafka for downstream
// portal consumers. The database row written in the mutation's transaction is
// the source of truth; publishing happens after commit and is best effort.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"satudata/internal/audit"
)

// Kafka publishes audit entries to a single topic, keyed by record id so a
// record's history lands in one partition in order.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects to the brokers and ensures the topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("ensure audit topic %s: %w", resp.Topic, resp.Err)
		}
	}

	return &Kafka{client: client, topic: topic}, nil
}

// wirePayload is the JSON shape on the topic.
type wirePayload struct {
	ID        string          `json:"id"`
	TableName string          `json:"table_name"`
	RecordID  string          `json:"record_id"`
	Action    string          `json:"action"`
	UserID    string          `json:"user_id"`
	OldValues json.RawMessage `json:"old_values,omitempty"`
	NewValues json.RawMessage `json:"new_values,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// Publish produces one entry and waits for the broker ack.
func (k *Kafka) Publish(ctx context.Context, entry audit.Entry) error {
	payload := wirePayload{
		ID:        entry.ID.String(),
		TableName: entry.TableName,
		RecordID:  entry.RecordID,
		Action:    string(entry.Action),
		UserID:    entry.UserID.String(),
		OldValues: entry.OldValues,
		NewValues: entry.NewValues,
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(entry.RecordID),
		Value: value,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit entry: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (k *Kafka) Close() {
	k.client.Close()
}
