package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"matchbook/pkg/messaging"
)

// Sender implements messaging.Sender using a kafka-go writer.
type Sender struct {
	writer *kafka.Writer
	topic  string
}

// NewSender creates a new Kafka trade sender
func NewSender(brokerAddr, topic string) (*Sender, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerAddr),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Sender{
		writer: writer,
		topic:  topic,
	}, nil
}

// SendTrade publishes one trade to Kafka, keyed by the aggressing bid order
// id so a partition preserves per-order ordering.
func (s *Sender) SendTrade(ctx context.Context, trade *messaging.TradeMessage) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("failed to marshal trade message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(trade.BidOrderID, 10)),
		Value: data,
		Time:  trade.ExecutedAt,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to send trade to Kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka writer
func (s *Sender) Close() error {
	return s.writer.Close()
}

// Ensure Sender implements messaging.Sender
var _ messaging.Sender = (*Sender)(nil)
