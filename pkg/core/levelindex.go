package core

// levelAction describes how a level index entry is adjusted.
type levelAction int

const (
	levelAdd levelAction = iota
	levelRemove
	levelMatch
)

// levelData aggregates the orders resting at one price across both sides.
// Prices never collide across sides while both hold orders, because such a
// pair would immediately cross and clear.
type levelData struct {
	count    int
	quantity Quantity
}

// levelIndex maps price to aggregated (count, total quantity). It duplicates
// information derivable from the ladders so FillOrKill feasibility can be
// decided in time bounded by the number of levels, independent of queue
// depth. It is never consulted for matching.
type levelIndex map[Price]*levelData

// update applies one event to the index. Add is used on insertion with the
// order's initial quantity, Match on a partial fill with the filled
// quantity, and Remove on a full fill or cancellation with the remaining
// quantity at that moment. Entries are deleted when their count reaches 0.
func (ix levelIndex) update(price Price, quantity Quantity, action levelAction) {
	data, ok := ix[price]
	if !ok {
		data = &levelData{}
		ix[price] = data
	}

	switch action {
	case levelAdd:
		data.count++
		data.quantity += quantity
	case levelMatch:
		data.quantity -= quantity
	case levelRemove:
		data.count--
		data.quantity -= quantity
	}

	if data.count == 0 {
		delete(ix, price)
	}
}

// quantityAt returns the aggregated quantity resting at the given price.
func (ix levelIndex) quantityAt(price Price) Quantity {
	if data, ok := ix[price]; ok {
		return data.quantity
	}
	return 0
}
