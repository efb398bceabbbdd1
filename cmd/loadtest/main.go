// Command loadtest drives an in-process order book with a randomised order
// flow and reports submit latency percentiles.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"matchbook/pkg/core"
)

var (
	numWorkers      = flag.Int("workers", 8, "Concurrent submitter goroutines")
	ordersPerWorker = flag.Int("orders", 100000, "Orders submitted per worker")
	maxRate         = flag.Int("rate", 0, "Max submits per second, 0 for unlimited")
	seed            = flag.Int64("seed", 1, "Random seed")
	cancelPercent   = flag.Int("cancel-pct", 20, "Percentage of operations that cancel a prior order")
)

func main() {
	flag.Parse()

	book := core.NewOrderBook(core.WithLogger(zerolog.Nop()))
	defer book.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		log.Println("Received interrupt signal, cleaning up...")
		cancel()
	}()

	var limiter *rate.Limiter
	if *maxRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(*maxRate), *maxRate)
	}

	var (
		wg          sync.WaitGroup
		tradeCount  atomic.Uint64
		tradedUnits atomic.Uint64
	)

	// One histogram per worker, merged at the end; Histogram is not safe
	// for concurrent writers.
	histograms := make([]*hdrhistogram.Histogram, *numWorkers)

	start := time.Now()
	log.Printf("Starting %d workers, %d orders per worker...", *numWorkers, *ordersPerWorker)

	for i := 0; i < *numWorkers; i++ {
		wg.Add(1)
		histograms[i] = hdrhistogram.New(1, int64(10*time.Second/time.Microsecond), 3)

		go func(workerID int) {
			defer wg.Done()

			r := rand.New(rand.NewSource(*seed + int64(workerID)))
			hist := histograms[workerID]
			var resting []core.OrderID

			for j := 0; j < *ordersPerWorker; j++ {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
				} else if ctx.Err() != nil {
					return
				}

				if len(resting) > 0 && r.Intn(100) < *cancelPercent {
					idx := r.Intn(len(resting))
					book.Cancel(resting[idx])
					resting = append(resting[:idx], resting[idx+1:]...)
					continue
				}

				id := core.OrderID(workerID)*core.OrderID(*ordersPerWorker) + core.OrderID(j) + 1
				order := generateRandomOrder(r, id)

				submitStart := time.Now()
				trades := book.Submit(order)
				hist.RecordValue(time.Since(submitStart).Microseconds())

				if len(trades) > 0 {
					tradeCount.Add(uint64(len(trades)))
					for _, trade := range trades {
						tradedUnits.Add(uint64(trade.Quantity()))
					}
				}
				if book.Contains(id) {
					resting = append(resting, id)
				}
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)

	merged := histograms[0]
	for _, hist := range histograms[1:] {
		merged.Merge(hist)
	}

	total := merged.TotalCount()
	log.Printf("Load test completed in %v", duration)
	log.Printf("Orders submitted: %d (%.0f/s)", total, float64(total)/duration.Seconds())
	log.Printf("Trades executed: %d (%d units)", tradeCount.Load(), tradedUnits.Load())
	log.Printf("Resting at end: %d", book.Size())
	log.Printf("Submit latency (us): p50=%d p90=%d p99=%d p99.9=%d max=%d",
		merged.ValueAtQuantile(50),
		merged.ValueAtQuantile(90),
		merged.ValueAtQuantile(99),
		merged.ValueAtQuantile(99.9),
		merged.Max())
}

// generateRandomOrder mixes mostly GTC flow around a fixed midpoint with a
// sprinkling of the immediate order types.
func generateRandomOrder(r *rand.Rand, id core.OrderID) *core.Order {
	side := core.Buy
	if r.Float64() < 0.5 {
		side = core.Sell
	}

	quantity := core.Quantity(r.Intn(100) + 1)

	const midpoint = 10000
	offset := core.Price(r.Intn(21) - 10)
	price := midpoint + offset

	var order *core.Order
	var err error
	switch roll := r.Intn(100); {
	case roll < 85:
		order, err = core.NewOrder(core.GoodTillCancel, id, side, price, quantity)
	case roll < 90:
		order, err = core.NewOrder(core.GoodForDay, id, side, price, quantity)
	case roll < 95:
		order, err = core.NewOrder(core.FillAndKill, id, side, price, quantity)
	case roll < 98:
		order, err = core.NewOrder(core.FillOrKill, id, side, price, quantity)
	default:
		order, err = core.NewMarketOrder(id, side, quantity)
	}
	if err != nil {
		log.Fatalf("Failed to build order: %v", err)
	}
	return order
}
