// Package messaging carries executed trades to downstream consumers. It
// decouples the matching engine from specific transports like Kafka or
// Redis Streams.
package messaging

import (
	"context"
	"time"

	"matchbook/pkg/core"
)

// TradeMessage is the published form of one execution. Each leg keeps the
// resting price of its order, so the two prices may differ when the
// aggressor crossed the spread.
type TradeMessage struct {
	Symbol     string    `json:"symbol"`
	BidOrderID uint64    `json:"bidOrderId"`
	AskOrderID uint64    `json:"askOrderId"`
	BidPrice   int32     `json:"bidPrice"`
	AskPrice   int32     `json:"askPrice"`
	Quantity   uint32    `json:"quantity"`
	ExecutedAt time.Time `json:"executedAt"`
}

// Sender defines an interface for publishing trades. Implementations must be
// safe for concurrent use.
type Sender interface {
	SendTrade(ctx context.Context, trade *TradeMessage) error
	Close() error
}

// FromTrades converts a matching cycle's trades into messages.
func FromTrades(symbol string, trades core.Trades, executedAt time.Time) []*TradeMessage {
	messages := make([]*TradeMessage, 0, len(trades))
	for _, trade := range trades {
		messages = append(messages, &TradeMessage{
			Symbol:     symbol,
			BidOrderID: trade.Bid.OrderID,
			AskOrderID: trade.Ask.OrderID,
			BidPrice:   trade.Bid.Price,
			AskPrice:   trade.Ask.Price,
			Quantity:   trade.Quantity(),
			ExecutedAt: executedAt,
		})
	}
	return messages
}
