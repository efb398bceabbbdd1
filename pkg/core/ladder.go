package core

import "container/list"

// level is a single price entry in a ladder: the price and the FIFO queue of
// resting orders at that price. Queue elements hold *Order values; the
// registry keeps the *list.Element handles so cancellation never scans.
type level struct {
	price Price
	queue *list.List
	next  *level
	prev  *level
}

func newLevel(price Price) *level {
	return &level{
		price: price,
		queue: list.New(),
	}
}

// front returns the first resting order at this level.
func (l *level) front() *Order {
	return l.queue.Front().Value.(*Order)
}

// totalQuantity sums the remaining quantity of every order in the queue.
func (l *level) totalQuantity() Quantity {
	var total Quantity
	for e := l.queue.Front(); e != nil; e = e.Next() {
		total += e.Value.(*Order).RemainingQuantity()
	}
	return total
}

// ladder is one side of the book: a doubly linked list of price levels kept
// sorted best-first (descending for bids, ascending for asks), plus a price
// lookup map. Intra-level order is FIFO by insertion.
type ladder struct {
	side    Side
	head    *level
	tail    *level
	byPrice map[Price]*level
}

func newLadder(side Side) *ladder {
	return &ladder{
		side:    side,
		byPrice: make(map[Price]*level),
	}
}

func (ld *ladder) empty() bool {
	return ld.head == nil
}

// best returns the first (best-priced) level, or nil when the side is empty.
func (ld *ladder) best() *level {
	return ld.head
}

// worst returns the last (deepest) level, or nil when the side is empty.
func (ld *ladder) worst() *level {
	return ld.tail
}

// better reports whether price a has strictly better priority than b on this
// side of the book.
func (ld *ladder) better(a, b Price) bool {
	if ld.side == Buy {
		return a > b
	}
	return a < b
}

// getOrCreate returns the level at the given price, splicing in a new one at
// its sorted position when absent.
func (ld *ladder) getOrCreate(price Price) *level {
	if lvl, ok := ld.byPrice[price]; ok {
		return lvl
	}

	lvl := newLevel(price)
	ld.byPrice[price] = lvl

	switch {
	case ld.head == nil:
		ld.head = lvl
		ld.tail = lvl
	case ld.better(price, ld.head.price):
		lvl.next = ld.head
		ld.head.prev = lvl
		ld.head = lvl
	case !ld.better(price, ld.tail.price):
		lvl.prev = ld.tail
		ld.tail.next = lvl
		ld.tail = lvl
	default:
		current := ld.head
		for current != nil && !ld.better(price, current.price) {
			current = current.next
		}
		lvl.next = current
		lvl.prev = current.prev
		current.prev.next = lvl
		current.prev = lvl
	}

	return lvl
}

// remove unlinks a level from the ladder. The caller guarantees the level's
// queue is already empty (invariant: no empty levels at rest).
func (ld *ladder) remove(lvl *level) {
	delete(ld.byPrice, lvl.price)

	if lvl.prev != nil {
		lvl.prev.next = lvl.next
	} else {
		ld.head = lvl.next
	}

	if lvl.next != nil {
		lvl.next.prev = lvl.prev
	} else {
		ld.tail = lvl.prev
	}

	lvl.next = nil
	lvl.prev = nil
}

// levels walks the ladder best-first and collects aggregated level infos.
func (ld *ladder) levels() []LevelInfo {
	infos := make([]LevelInfo, 0, len(ld.byPrice))
	for lvl := ld.head; lvl != nil; lvl = lvl.next {
		infos = append(infos, LevelInfo{Price: lvl.price, Quantity: lvl.totalQuantity()})
	}
	return infos
}
