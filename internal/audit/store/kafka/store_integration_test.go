//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"cadastro/internal/audit"
	auditkafka "cadastro/internal/audit/store/kafka"
	"cadastro/internal/platform/config"
	platformkafka "cadastro/internal/platform/kafka"
	"cadastro/pkg/testutil/containers"
)

type KafkaStoreSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	client   *platformkafka.Client
	topic    string
}

func TestKafkaStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaStoreSuite))
}

func (s *KafkaStoreSuite) SetupSuite() {
	ctx := context.Background()
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
	s.topic = "person-events-" + uuid.NewString()[:8]

	client, err := platformkafka.New(ctx, config.KafkaConfig{
		Brokers:    []string{s.redpanda.Broker},
		AuditTopic: s.topic,
	})
	s.Require().NoError(err)
	s.client = client
	s.Require().NoError(client.EnsureTopic(ctx, s.topic, 1, 1))
	// Second call must tolerate the existing topic.
	s.Require().NoError(client.EnsureTopic(ctx, s.topic, 1, 1))
}

func (s *KafkaStoreSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *KafkaStoreSuite) TestAppendIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := auditkafka.New(s.client, s.topic)
	event := audit.Event{
		ID:        uuid.New(),
		Action:    audit.ActionPersonCreated,
		PersonID:  uuid.New(),
		ActorID:   "operator-1",
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}
	s.Require().NoError(store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)

	var got audit.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(event.PersonID, got.PersonID)
	s.Equal(event.Action, got.Action)
	s.Equal(event.PersonID.String(), string(records[0].Key))
}
