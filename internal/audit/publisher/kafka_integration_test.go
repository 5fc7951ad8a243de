//go:build integration

package publisher_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"satudata/internal/audit"
	"satudata/internal/audit/publisher"
	id "satudata/pkg/domain"
	"satudata/pkg/testutil/containers"
)

const testTopic = "satudata.audit.test"

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda  *containers.RedpandaContainer
	publisher *publisher.Kafka
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())

	pub, err := publisher.NewKafka(context.Background(), s.redpanda.Brokers, testTopic)
	s.Require().NoError(err)
	s.publisher = pub
}

func (s *KafkaPublisherSuite) TearDownSuite() {
	s.publisher.Close()
	_ = s.redpanda.Container.Terminate(context.Background())
}

func (s *KafkaPublisherSuite) TestPublishRoundTrip() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recordID := uuid.NewString()
	userID := id.UserID(uuid.New())
	entry, err := audit.NewCreateEntry("indicator_data", recordID, userID, map[string]any{"value": 42.5}, time.Now().UTC())
	s.Require().NoError(err)

	s.Require().NoError(s.publisher.Publish(ctx, entry))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(testTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())
	records := fetches.Records()
	s.Require().NotEmpty(records)

	record := records[len(records)-1]
	s.Equal(recordID, string(record.Key), "records must be keyed by record id")

	var payload struct {
		ID        string          `json:"id"`
		TableName string          `json:"table_name"`
		RecordID  string          `json:"record_id"`
		Action    string          `json:"action"`
		UserID    string          `json:"user_id"`
		NewValues json.RawMessage `json:"new_values"`
	}
	s.Require().NoError(json.Unmarshal(record.Value, &payload))
	s.Equal(entry.ID.String(), payload.ID)
	s.Equal("indicator_data", payload.TableName)
	s.Equal(recordID, payload.RecordID)
	s.Equal(string(audit.ActionCreate), payload.Action)
	s.Equal(userID.String(), payload.UserID)

	var values map[string]any
	s.Require().NoError(json.Unmarshal(payload.NewValues, &values))
	s.Equal(42.5, values["value"])
}
