package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"

	"matchbook/pkg/messaging"
)

// SyncSender implements messaging.Sender on a sarama synchronous producer.
// Unlike Sender it blocks until the broker acknowledges each trade, which is
// the right trade-off for an audit-grade tape.
type SyncSender struct {
	producer sarama.SyncProducer
	topic    string
}

// NewSyncSender creates a SyncSender connected to the given brokers.
func NewSyncSender(brokers []string, topic string) (*SyncSender, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &SyncSender{
		producer: producer,
		topic:    topic,
	}, nil
}

// SendTrade publishes one trade and waits for the broker acknowledgement.
func (s *SyncSender) SendTrade(_ context.Context, trade *messaging.TradeMessage) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("failed to marshal trade message: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(trade.BidOrderID, 10)),
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send trade to Kafka: %w", err)
	}

	return nil
}

// Close closes the underlying producer.
func (s *SyncSender) Close() error {
	return s.producer.Close()
}

// Ensure SyncSender implements messaging.Sender
var _ messaging.Sender = (*SyncSender)(nil)
