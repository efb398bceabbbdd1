package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"matchbook/pkg/messaging"
)

// Consumer tails the trade topic. It is a developer convenience for watching
// the tape; production consumers own their offsets.
type Consumer struct {
	consumer  sarama.Consumer
	partition sarama.PartitionConsumer
}

// NewConsumer attaches to the newest offset of partition 0 of the trade
// topic.
func NewConsumer(brokers []string, topic string) (*Consumer, error) {
	consumer, err := sarama.NewConsumer(brokers, sarama.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	partition, err := consumer.ConsumePartition(topic, 0, sarama.OffsetNewest)
	if err != nil {
		consumer.Close()
		return nil, fmt.Errorf("failed to consume partition: %w", err)
	}

	return &Consumer{
		consumer:  consumer,
		partition: partition,
	}, nil
}

// Consume invokes the handler for every trade until the context is
// cancelled.
func (c *Consumer) Consume(ctx context.Context, handler func(*messaging.TradeMessage) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-c.partition.Messages():
			if !ok {
				return nil
			}

			var trade messaging.TradeMessage
			if err := json.Unmarshal(msg.Value, &trade); err != nil {
				return fmt.Errorf("failed to decode trade message: %w", err)
			}

			if err := handler(&trade); err != nil {
				return err
			}
		}
	}
}

// Close tears down the partition consumer and the client.
func (c *Consumer) Close() error {
	if err := c.partition.Close(); err != nil {
		c.consumer.Close()
		return err
	}
	return c.consumer.Close()
}

// SetupConsumer starts a background tape watcher that logs every trade.
func SetupConsumer(ctx context.Context, brokers []string, topic string, logger zerolog.Logger) (*Consumer, error) {
	consumer, err := NewConsumer(brokers, topic)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create Kafka consumer - continuing without tape watcher")
		return nil, err
	}

	go func() {
		logger.Info().Str("topic", topic).Msg("Starting Kafka tape watcher")
		err := consumer.Consume(ctx, func(trade *messaging.TradeMessage) error {
			logger.Info().
				Str("symbol", trade.Symbol).
				Uint64("bid_order_id", trade.BidOrderID).
				Uint64("ask_order_id", trade.AskOrderID).
				Int32("bid_price", trade.BidPrice).
				Int32("ask_price", trade.AskPrice).
				Uint32("quantity", trade.Quantity).
				Msg("Trade executed")
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("Kafka tape watcher error")
		}
	}()

	return consumer, nil
}
