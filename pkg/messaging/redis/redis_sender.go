package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"matchbook/pkg/messaging"
)

// Options represents configuration options for the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

// StreamSender implements messaging.Sender by appending trades to a Redis
// stream, one XADD entry per execution.
type StreamSender struct {
	client *redis.Client
	stream string
}

// NewStreamSender creates a StreamSender from the given options.
func NewStreamSender(options Options) *StreamSender {
	client := redis.NewClient(&redis.Options{
		Addr:     options.Addr,
		Password: options.Password,
		DB:       options.DB,
	})

	return &StreamSender{
		client: client,
		stream: options.Stream,
	}
}

// SendTrade appends one trade to the stream.
func (s *StreamSender) SendTrade(ctx context.Context, trade *messaging.TradeMessage) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"symbol":       trade.Symbol,
			"bid_order_id": trade.BidOrderID,
			"ask_order_id": trade.AskOrderID,
			"bid_price":    trade.BidPrice,
			"ask_price":    trade.AskPrice,
			"quantity":     trade.Quantity,
			"executed_at":  trade.ExecutedAt.UnixNano(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append trade to stream %s: %w", s.stream, err)
	}

	return nil
}

// Close closes the Redis client.
func (s *StreamSender) Close() error {
	return s.client.Close()
}

// Ensure StreamSender implements messaging.Sender
var _ messaging.Sender = (*StreamSender)(nil)
