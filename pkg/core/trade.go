package core

// TradeLeg records one side's contribution to an execution. The price is the
// resting price of the order on that side, so the two legs of a trade may
// carry different prices when an aggressor crosses the spread.
type TradeLeg struct {
	OrderID  OrderID
	Price    Price
	Quantity Quantity
}

// Trade is a single execution between a bid and an ask. Both legs always
// carry the same, strictly positive quantity.
type Trade struct {
	Bid TradeLeg
	Ask TradeLeg
}

// Quantity returns the executed quantity of the trade.
func (t Trade) Quantity() Quantity {
	return t.Bid.Quantity
}

// Trades is the list of executions produced by one matching cycle.
type Trades []Trade
