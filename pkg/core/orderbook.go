package core

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// orderEntry ties an order to its position in the book: the queue element is
// a stable handle that survives unrelated insertions and removals at the same
// level, which is what makes cancellation O(1).
type orderEntry struct {
	order *Order
	elem  *list.Element
	lvl   *level
}

// OrderBook implements a single-symbol limit order book with price-time
// priority and continuous matching. A single exclusive lock serializes all
// mutations and reads of the book state; the only background actor is the
// good-for-day pruner started by NewOrderBook.
type OrderBook struct {
	mu     sync.Mutex
	bids   *ladder
	asks   *ladder
	orders map[OrderID]*orderEntry
	index  levelIndex

	logger zerolog.Logger

	shutdown  atomic.Bool
	pruneWake chan struct{}
	pruneDone chan struct{}
	closeOnce sync.Once
}

// Option configures an OrderBook.
type Option func(*OrderBook)

// WithLogger attaches a logger used by the background pruner. The matching
// hot path never logs.
func WithLogger(logger zerolog.Logger) Option {
	return func(ob *OrderBook) {
		ob.logger = logger
	}
}

// NewOrderBook creates an empty book and starts its good-for-day pruner.
// Callers must Close the book to stop the pruner.
func NewOrderBook(opts ...Option) *OrderBook {
	ob := &OrderBook{
		bids:      newLadder(Buy),
		asks:      newLadder(Sell),
		orders:    make(map[OrderID]*orderEntry),
		index:     make(levelIndex),
		logger:    zerolog.Nop(),
		pruneWake: make(chan struct{}),
		pruneDone: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ob)
	}

	go ob.pruneGoodForDayOrders()

	return ob
}

// Close signals the pruner to shut down and waits for it to exit.
func (ob *OrderBook) Close() {
	ob.closeOnce.Do(func() {
		ob.shutdown.Store(true)
		close(ob.pruneWake)
		<-ob.pruneDone
	})
}

// Submit admits an order into the book and runs the matcher.
//
// Rejections are silent and return empty trades: a duplicate id, a Market
// order against an empty opposite side, a FillAndKill that cannot cross, or
// a FillOrKill that cannot be filled in full at its limit.
func (ob *OrderBook) Submit(order *Order) Trades {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if _, exists := ob.orders[order.ID()]; exists {
		return nil
	}

	// Market orders are rewritten as GoodTillCancel at the deepest resting
	// price on the opposite side, so they sweep every level they can reach.
	if order.Type() == Market {
		opposite := ob.ladder(order.Side().Opposite())
		if opposite.empty() {
			return nil
		}
		order.ToGoodTillCancel(opposite.worst().price)
	}

	if order.Type() == FillAndKill && !ob.canMatch(order.Side(), order.Price()) {
		return nil
	}

	if order.Type() == FillOrKill && !ob.canFullyFill(order.Side(), order.Price(), order.InitialQuantity()) {
		return nil
	}

	lvl := ob.ladder(order.Side()).getOrCreate(order.Price())
	elem := lvl.queue.PushBack(order)
	ob.orders[order.ID()] = &orderEntry{order: order, elem: elem, lvl: lvl}
	ob.index.update(order.Price(), order.InitialQuantity(), levelAdd)

	return ob.match()
}

// Cancel removes a resting order. Unknown ids are a no-op.
func (ob *OrderBook) Cancel(id OrderID) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.cancelLocked(id)
}

// Modify cancels the order and resubmits it with the new attributes under
// the original order type. The order id is kept; the FIFO position is not.
// Unknown ids return empty trades. Modify is two mutations under reacquired
// locks, never observable mid-flight by other callers.
func (ob *OrderBook) Modify(id OrderID, side Side, price Price, quantity Quantity) Trades {
	ob.mu.Lock()
	entry, ok := ob.orders[id]
	if !ok {
		ob.mu.Unlock()
		return nil
	}
	orderType := entry.order.Type()
	ob.cancelLocked(id)
	ob.mu.Unlock()

	replacement, err := NewOrder(orderType, id, side, price, quantity)
	if err != nil {
		return nil
	}

	return ob.Submit(replacement)
}

// Contains reports whether an order with the given id is resting.
func (ob *OrderBook) Contains(id OrderID) bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	_, ok := ob.orders[id]
	return ok
}

// Size returns the number of resting orders.
func (ob *OrderBook) Size() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return len(ob.orders)
}

// Snapshot aggregates each side into (price, total remaining quantity)
// levels, bids descending and asks ascending.
func (ob *OrderBook) Snapshot() Snapshot {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return Snapshot{
		Bids: ob.bids.levels(),
		Asks: ob.asks.levels(),
	}
}

func (ob *OrderBook) ladder(side Side) *ladder {
	if side == Buy {
		return ob.bids
	}
	return ob.asks
}

// canMatch reports whether an order at the given price would cross the best
// opposite level.
func (ob *OrderBook) canMatch(side Side, price Price) bool {
	opposite := ob.ladder(side.Opposite())
	if opposite.empty() {
		return false
	}

	best := opposite.best().price
	if side == Buy {
		return price >= best
	}
	return price <= best
}

// canFullyFill walks the opposite levels best-first, summing the aggregated
// quantity recorded in the level index at every level inside the order's
// limit, and reports whether the accumulated liquidity covers the quantity.
func (ob *OrderBook) canFullyFill(side Side, price Price, quantity Quantity) bool {
	if !ob.canMatch(side, price) {
		return false
	}

	opposite := ob.ladder(side.Opposite())
	for lvl := opposite.best(); lvl != nil; lvl = lvl.next {
		if (side == Buy && lvl.price > price) || (side == Sell && lvl.price < price) {
			break
		}

		available := ob.index.quantityAt(lvl.price)
		if quantity <= available {
			return true
		}
		quantity -= available
	}

	return false
}

// match drains executable crosses from the top of the book, emitting one
// trade per fill with each leg priced at its resting order's price. A price
// level is removed when its own queue empties. Finally, a FillAndKill left
// resting at either best after its partial fill is cancelled.
func (ob *OrderBook) match() Trades {
	var trades Trades

	for {
		if ob.bids.empty() || ob.asks.empty() {
			break
		}

		bidLvl := ob.bids.best()
		askLvl := ob.asks.best()

		if bidLvl.price < askLvl.price {
			break
		}

		for bidLvl.queue.Len() > 0 && askLvl.queue.Len() > 0 {
			bid := bidLvl.front()
			ask := askLvl.front()

			quantity := min(bid.RemainingQuantity(), ask.RemainingQuantity())

			bid.Fill(quantity)
			ask.Fill(quantity)

			trades = append(trades, Trade{
				Bid: TradeLeg{OrderID: bid.ID(), Price: bid.Price(), Quantity: quantity},
				Ask: TradeLeg{OrderID: ask.ID(), Price: ask.Price(), Quantity: quantity},
			})

			ob.onOrderMatched(bid.Price(), quantity, bid.IsFilled())
			ob.onOrderMatched(ask.Price(), quantity, ask.IsFilled())

			if bid.IsFilled() {
				bidLvl.queue.Remove(bidLvl.queue.Front())
				delete(ob.orders, bid.ID())
			}

			if ask.IsFilled() {
				askLvl.queue.Remove(askLvl.queue.Front())
				delete(ob.orders, ask.ID())
			}
		}

		if bidLvl.queue.Len() == 0 {
			ob.bids.remove(bidLvl)
		}

		if askLvl.queue.Len() == 0 {
			ob.asks.remove(askLvl)
		}
	}

	if !ob.bids.empty() {
		if order := ob.bids.best().front(); order.Type() == FillAndKill {
			ob.cancelLocked(order.ID())
		}
	}

	if !ob.asks.empty() {
		if order := ob.asks.best().front(); order.Type() == FillAndKill {
			ob.cancelLocked(order.ID())
		}
	}

	return trades
}

// cancelLocked removes an order via its registry handles. Callers hold the
// book lock.
func (ob *OrderBook) cancelLocked(id OrderID) {
	entry, ok := ob.orders[id]
	if !ok {
		return
	}

	delete(ob.orders, id)
	entry.lvl.queue.Remove(entry.elem)

	if entry.lvl.queue.Len() == 0 {
		ob.ladder(entry.order.Side()).remove(entry.lvl)
	}

	ob.index.update(entry.order.Price(), entry.order.RemainingQuantity(), levelRemove)
}

// cancelOrders cancels a batch of ids under a single lock acquisition.
func (ob *OrderBook) cancelOrders(ids []OrderID) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	for _, id := range ids {
		ob.cancelLocked(id)
	}
}

func (ob *OrderBook) onOrderMatched(price Price, quantity Quantity, fullyFilled bool) {
	action := levelMatch
	if fullyFilled {
		action = levelRemove
	}
	ob.index.update(price, quantity, action)
}
