package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSessionClose(t *testing.T) {
	loc := time.UTC

	morning := time.Date(2026, time.March, 2, 9, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2026, time.March, 2, 16, 0, 0, 0, loc), nextSessionClose(morning))

	// At or after 16:00 the close rolls to the next day.
	atClose := time.Date(2026, time.March, 2, 16, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, time.March, 3, 16, 0, 0, 0, loc), nextSessionClose(atClose))

	evening := time.Date(2026, time.March, 2, 23, 59, 59, 0, loc)
	assert.Equal(t, time.Date(2026, time.March, 3, 16, 0, 0, 0, loc), nextSessionClose(evening))

	// Month boundary.
	endOfMonth := time.Date(2026, time.January, 31, 17, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, time.February, 1, 16, 0, 0, 0, loc), nextSessionClose(endOfMonth))
}

func TestPruner_CancelsOnlyDayOrders(t *testing.T) {
	ob := NewOrderBook()
	defer ob.Close()

	ob.Submit(mustOrder(t, GoodTillCancel, 1, Buy, 100, 10))
	ob.Submit(mustOrder(t, GoodForDay, 2, Buy, 99, 10))
	ob.Submit(mustOrder(t, GoodForDay, 3, Sell, 105, 4))

	ids := ob.collectDayOrders()
	require.ElementsMatch(t, []OrderID{2, 3}, ids)

	ob.cancelOrders(ids)
	assert.Equal(t, 1, ob.Size())
	checkInvariants(t, ob)
}

func TestPruner_CollectEmptyBook(t *testing.T) {
	ob := NewOrderBook()
	defer ob.Close()

	assert.Empty(t, ob.collectDayOrders())
}

func TestOrderBook_CloseJoinsPruner(t *testing.T) {
	ob := NewOrderBook()

	done := make(chan struct{})
	go func() {
		ob.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not join the pruner")
	}

	// Close is idempotent.
	ob.Close()
}
