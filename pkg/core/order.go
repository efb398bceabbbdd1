package core

import "fmt"

// Order stores information about a single order. The remaining quantity is
// mutated in place by the matcher, so every holder of an *Order (price queue,
// registry, in-flight trade construction) observes the same instance.
type Order struct {
	id          OrderID
	orderType   OrderType
	side        Side
	price       Price
	initialQty  Quantity
	remaining   Quantity
}

// NewOrder creates a new Order
func NewOrder(orderType OrderType, id OrderID, side Side, price Price, quantity Quantity) (*Order, error) {
	switch orderType {
	case GoodTillCancel, GoodForDay, Market, FillAndKill, FillOrKill:
	default:
		return nil, ErrInvalidOrderType
	}

	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}

	return &Order{
		id:         id,
		orderType:  orderType,
		side:       side,
		price:      price,
		initialQty: quantity,
		remaining:  quantity,
	}, nil
}

// NewMarketOrder creates a new Market order. The price is assigned when the
// order is rewritten against the opposite side of the book.
func NewMarketOrder(id OrderID, side Side, quantity Quantity) (*Order, error) {
	return NewOrder(Market, id, side, 0, quantity)
}

// ID returns the order identifier
func (o *Order) ID() OrderID {
	return o.id
}

// Type returns the order type
func (o *Order) Type() OrderType {
	return o.orderType
}

// Side returns side of the Order
func (o *Order) Side() Side {
	return o.side
}

// Price returns the limit price in ticks
func (o *Order) Price() Price {
	return o.price
}

// InitialQuantity returns the quantity the order was submitted with
func (o *Order) InitialQuantity() Quantity {
	return o.initialQty
}

// RemainingQuantity returns the unfilled quantity
func (o *Order) RemainingQuantity() Quantity {
	return o.remaining
}

// FilledQuantity returns the executed quantity
func (o *Order) FilledQuantity() Quantity {
	return o.initialQty - o.remaining
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.remaining == 0
}

// Fill reduces the remaining quantity. Overfilling an order is an internal
// invariant violation and panics.
func (o *Order) Fill(quantity Quantity) {
	if quantity > o.remaining {
		panic(fmt.Sprintf("order %d: fill %d exceeds remaining %d", o.id, quantity, o.remaining))
	}
	o.remaining -= quantity
}

// ToGoodTillCancel rewrites a Market order into a GoodTillCancel order at the
// given price. Only Market orders may be rewritten.
func (o *Order) ToGoodTillCancel(price Price) {
	if o.orderType != Market {
		panic(fmt.Sprintf("order %d: only market orders may be price-adjusted", o.id))
	}
	o.price = price
	o.orderType = GoodTillCancel
}

// String implements fmt.Stringer interface
func (o *Order) String() string {
	return fmt.Sprintf("%d %s %s %d@%d (%d left)", o.id, o.orderType, o.side, o.initialQty, o.price, o.remaining)
}
