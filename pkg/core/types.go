package core

// Price is a signed price in integer ticks.
type Price = int32

// Quantity is an unsigned order quantity in units.
type Quantity = uint32

// OrderID identifies an order. IDs are assigned by the caller and must be
// unique over the lifetime of the book.
type OrderID = uint64

// Side represents buy or sell side of the order
type Side int

// Order sides
const (
	Sell Side = iota
	Buy
)

// String returns side as string
func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType represents type of the order
type OrderType string

// Order types
const (
	GoodTillCancel OrderType = "GTC" // rests until explicitly cancelled
	GoodForDay     OrderType = "GFD" // rests until cancelled or session close
	Market         OrderType = "MARKET"
	FillAndKill    OrderType = "FAK" // immediate-or-cancel
	FillOrKill     OrderType = "FOK" // all-or-nothing, immediate
)

// LevelInfo is one aggregated price level of a book snapshot.
type LevelInfo struct {
	Price    Price
	Quantity Quantity
}

// Snapshot is a point-in-time aggregated view of both sides of the book.
// Bids are ordered by descending price, asks by ascending price.
type Snapshot struct {
	Bids []LevelInfo
	Asks []LevelInfo
}
