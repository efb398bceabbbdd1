package core

import "time"

const (
	// sessionCloseHour is the session close in local civil time (16:00).
	sessionCloseHour = 16

	// pruneGuard keeps the pruner from racing the session boundary.
	pruneGuard = 100 * time.Millisecond
)

// nextSessionClose returns the next 16:00 local time strictly after now:
// today's close if it has not passed yet, otherwise tomorrow's.
func nextSessionClose(now time.Time) time.Time {
	closeAt := time.Date(now.Year(), now.Month(), now.Day(), sessionCloseHour, 0, 0, 0, now.Location())
	if !now.Before(closeAt) {
		next := now.AddDate(0, 0, 1)
		closeAt = time.Date(next.Year(), next.Month(), next.Day(), sessionCloseHour, 0, 0, 0, now.Location())
	}
	return closeAt
}

// pruneGoodForDayOrders waits until each session close and submits an
// unsolicited cancel for every resting GoodForDay order. The id collection
// and the batch cancel run under separate lock acquisitions to keep the
// critical sections short. The loop exits when Close signals shutdown.
func (ob *OrderBook) pruneGoodForDayOrders() {
	defer close(ob.pruneDone)

	for {
		now := time.Now()
		timer := time.NewTimer(nextSessionClose(now).Sub(now) + pruneGuard)

		select {
		case <-ob.pruneWake:
			timer.Stop()
			return
		case <-timer.C:
		}

		if ob.shutdown.Load() {
			return
		}

		ids := ob.collectDayOrders()
		if len(ids) == 0 {
			continue
		}

		ob.cancelOrders(ids)
		ob.logger.Info().
			Int("count", len(ids)).
			Msg("Cancelled good-for-day orders at session close")
	}
}

// collectDayOrders snapshots the ids of all resting GoodForDay orders.
func (ob *OrderBook) collectDayOrders() []OrderID {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	var ids []OrderID
	for id, entry := range ob.orders {
		if entry.order.Type() == GoodForDay {
			ids = append(ids, id)
		}
	}
	return ids
}
