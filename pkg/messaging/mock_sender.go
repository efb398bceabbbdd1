package messaging

import (
	"context"
	"sync"
)

// MockSender records sent trades for inspection in tests.
type MockSender struct {
	mu     sync.Mutex
	trades []*TradeMessage
}

// NewMockSender creates a new MockSender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// SendTrade records the trade.
func (m *MockSender) SendTrade(_ context.Context, trade *TradeMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, trade)
	return nil
}

// Trades returns a copy of everything sent so far.
func (m *MockSender) Trades() []*TradeMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*TradeMessage, len(m.trades))
	copy(out, m.trades)
	return out
}

// Close does nothing.
func (m *MockSender) Close() error {
	return nil
}

// Ensure MockSender implements Sender
var _ Sender = (*MockSender)(nil)
