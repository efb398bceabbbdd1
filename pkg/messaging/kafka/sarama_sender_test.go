package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchbook/pkg/messaging"
)

// mockProducer implements just enough of sarama.SyncProducer for our tests
type mockProducer struct {
	sentMessages []*sarama.ProducerMessage
}

func (m *mockProducer) SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error) {
	m.sentMessages = append(m.sentMessages, msg)
	return 0, 0, nil
}

func (m *mockProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	m.sentMessages = append(m.sentMessages, msgs...)
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}

func (m *mockProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return 0
}

func (m *mockProducer) IsTransactional() bool {
	return false
}

func (m *mockProducer) BeginTxn() error {
	return nil
}

func (m *mockProducer) CommitTxn() error {
	return nil
}

func (m *mockProducer) AbortTxn() error {
	return nil
}

func (m *mockProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (m *mockProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func TestSyncSender_SendTrade(t *testing.T) {
	producer := &mockProducer{}
	sender := &SyncSender{producer: producer, topic: "trades"}

	trade := &messaging.TradeMessage{
		Symbol:     "TEST",
		BidOrderID: 1,
		AskOrderID: 2,
		BidPrice:   103,
		AskPrice:   100,
		Quantity:   5,
		ExecutedAt: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, sender.SendTrade(context.Background(), trade))
	require.Len(t, producer.sentMessages, 1)

	msg := producer.sentMessages[0]
	assert.Equal(t, "trades", msg.Topic)

	key, err := msg.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "1", string(key))

	value, err := msg.Value.Encode()
	require.NoError(t, err)

	var decoded messaging.TradeMessage
	require.NoError(t, json.Unmarshal(value, &decoded))
	assert.Equal(t, *trade, decoded)
}
