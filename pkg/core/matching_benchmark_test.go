package core

import (
	"math/rand"
	"testing"
)

// BenchmarkSubmitResting measures admission of non-crossing orders.
func BenchmarkSubmitResting(b *testing.B) {
	ob := NewOrderBook()
	defer ob.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		order, _ := NewOrder(GoodTillCancel, OrderID(i+1), Buy, Price(100-i%50), 10)
		ob.Submit(order)
	}
}

// BenchmarkSubmitMatching measures a steady stream of immediately crossing
// pairs, exercising the full match loop.
func BenchmarkSubmitMatching(b *testing.B) {
	ob := NewOrderBook()
	defer ob.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := OrderID(i * 2)
		buy, _ := NewOrder(GoodTillCancel, id+1, Buy, 100, 10)
		sell, _ := NewOrder(GoodTillCancel, id+2, Sell, 100, 10)
		ob.Submit(buy)
		ob.Submit(sell)
	}
}

// BenchmarkCancel measures O(1) cancellation from a deep level.
func BenchmarkCancel(b *testing.B) {
	ob := NewOrderBook()
	defer ob.Close()

	for i := 0; i < b.N; i++ {
		order, _ := NewOrder(GoodTillCancel, OrderID(i+1), Buy, 100, 10)
		ob.Submit(order)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ob.Cancel(OrderID(i + 1))
	}
}

// BenchmarkMixedWorkload approximates production flow: mostly resting
// orders, some crossing, some cancels.
func BenchmarkMixedWorkload(b *testing.B) {
	ob := NewOrderBook()
	defer ob.Close()

	rng := rand.New(rand.NewSource(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := OrderID(i + 1)
		switch rng.Intn(10) {
		case 0:
			ob.Cancel(OrderID(rng.Intn(i + 1)))
		case 1, 2:
			order, _ := NewOrder(GoodTillCancel, id, Sell, Price(95+rng.Intn(10)), Quantity(rng.Intn(50)+1))
			ob.Submit(order)
		default:
			order, _ := NewOrder(GoodTillCancel, id, Buy, Price(90+rng.Intn(10)), Quantity(rng.Intn(50)+1))
			ob.Submit(order)
		}
	}
}
