// Command bookctl is a command line client for the bookd HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	serverAddr = flag.String("addr", "localhost:8080", "The server address in the format host:port")
)

// Wire types of the bookd HTTP API.
type orderRequest struct {
	ID       uint64 `json:"id"`
	Type     string `json:"type"`
	Side     string `json:"side"`
	Price    string `json:"price,omitempty"`
	Quantity uint32 `json:"quantity"`
}

type modifyRequest struct {
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity uint32 `json:"quantity"`
}

type tradeView struct {
	Symbol     string    `json:"symbol"`
	BidOrderID uint64    `json:"bidOrderId"`
	AskOrderID uint64    `json:"askOrderId"`
	BidPrice   string    `json:"bidPrice"`
	AskPrice   string    `json:"askPrice"`
	Quantity   uint32    `json:"quantity"`
	ExecutedAt time.Time `json:"executedAt"`
}

type levelView struct {
	Price    string `json:"price"`
	Quantity uint32 `json:"quantity"`
}

type bookView struct {
	Symbol string      `json:"symbol"`
	Bids   []levelView `json:"bids"`
	Asks   []levelView `json:"asks"`
}

type orderResponse struct {
	OrderID        uint64      `json:"orderId"`
	Status         string      `json:"status"`
	FilledQuantity uint32      `json:"filledQuantity"`
	Trades         []tradeView `json:"trades"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Check if we have enough arguments
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Get the command
	command := os.Args[1]

	// Remove the command from os.Args to make flag parsing work
	os.Args = append(os.Args[:1], os.Args[2:]...)

	// Execute the appropriate command
	switch command {
	case "submit":
		submitOrder()
	case "modify":
		modifyOrder()
	case "cancel":
		if len(os.Args) < 2 {
			fmt.Println("Usage: cancel <id>")
			os.Exit(1)
		}
		cancelOrder(os.Args[1])
	case "book":
		showBook()
	case "watch":
		watchTrades()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func baseURL() string {
	return "http://" + *serverAddr
}

func submitOrder() {
	// Parse command line arguments
	orderID := flag.Uint64("id", 0, "Order ID")
	orderType := flag.String("type", "GTC", "Order type (GTC/GFD/MARKET/FAK/FOK)")
	side := flag.String("side", "", "Order side (BUY/SELL)")
	quantity := flag.Uint("qty", 0, "Order quantity")
	price := flag.String("price", "", "Order price (decimal, omit for MARKET)")
	flag.Parse()

	req := orderRequest{
		ID:       *orderID,
		Type:     *orderType,
		Side:     *side,
		Price:    *price,
		Quantity: uint32(*quantity),
	}

	var resp orderResponse
	doJSON(http.MethodPost, baseURL()+"/orders", req, &resp)
	printOrderResponse(resp)
}

func modifyOrder() {
	// Parse command line arguments
	orderID := flag.Uint64("id", 0, "Order ID")
	side := flag.String("side", "", "Order side (BUY/SELL)")
	quantity := flag.Uint("qty", 0, "New quantity")
	price := flag.String("price", "", "New price (decimal)")
	flag.Parse()

	req := modifyRequest{
		Side:     *side,
		Price:    *price,
		Quantity: uint32(*quantity),
	}

	var resp orderResponse
	doJSON(http.MethodPut, fmt.Sprintf("%s/orders/%d", baseURL(), *orderID), req, &resp)
	printOrderResponse(resp)
}

func cancelOrder(id string) {
	flag.Parse()

	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		log.Fatal().Str("id", id).Msg("Order id must be numeric")
	}

	doJSON(http.MethodDelete, baseURL()+"/orders/"+id, nil, nil)
	log.Info().Str("order_id", id).Msg("Order canceled")
}

func showBook() {
	flag.Parse()

	var view bookView
	doJSON(http.MethodGet, baseURL()+"/book", nil, &view)

	if err := renderBook(os.Stdout, view); err != nil {
		log.Fatal().Err(err).Msg("Failed to render book")
	}
}

func watchTrades() {
	flag.Parse()

	wsURL := "ws://" + *serverAddr + "/ws/trades"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", wsURL).Msg("Failed to connect")
	}
	defer conn.Close()

	log.Info().Str("url", wsURL).Msg("Watching trades, Ctrl-C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		conn.Close()
	}()

	for {
		var trade tradeView
		if err := conn.ReadJSON(&trade); err != nil {
			return
		}
		log.Info().
			Str("symbol", trade.Symbol).
			Uint64("bid_order_id", trade.BidOrderID).
			Uint64("ask_order_id", trade.AskOrderID).
			Str("bid_price", trade.BidPrice).
			Str("ask_price", trade.AskPrice).
			Uint32("quantity", trade.Quantity).
			Msg("Trade")
	}
}

// doJSON performs one API call, decoding the response into out when non-nil.
// API errors are fatal.
func doJSON(method, url string, body, out any) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatal().Err(err).Msg("Request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			log.Fatal().Int("status", resp.StatusCode).Str("error", apiErr.Error).Msg("Request rejected")
		}
		log.Fatal().Int("status", resp.StatusCode).Msg("Request rejected")
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatal().Err(err).Msg("Failed to decode response")
		}
	}
}

func printOrderResponse(resp orderResponse) {
	log.Info().
		Uint64("order_id", resp.OrderID).
		Str("status", resp.Status).
		Uint32("filled_quantity", resp.FilledQuantity).
		Msg("Order processed")

	for i, trade := range resp.Trades {
		log.Info().
			Int("index", i+1).
			Uint64("bid_order_id", trade.BidOrderID).
			Uint64("ask_order_id", trade.AskOrderID).
			Str("bid_price", trade.BidPrice).
			Str("ask_price", trade.AskPrice).
			Uint32("quantity", trade.Quantity).
			Msg("Trade")
	}
}

// renderBook prints the ladder asks-first so the spread sits in the middle.
func renderBook(out io.Writer, view bookView) error {
	cyan := color.New(color.FgCyan).SprintfFunc()
	red := color.New(color.FgRed).SprintfFunc()
	green := color.New(color.FgGreen).SprintfFunc()

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "%15s|%15s|%s\n",
		cyan("Price"),
		cyan("Quantity"),
		cyan("Side"))
	fmt.Fprintf(w, "%15s|%15s|%s\n",
		"---------------",
		"---------------",
		"----")

	// Asks print descending so the best ask sits directly above the best bid.
	for i := len(view.Asks) - 1; i >= 0; i-- {
		level := view.Asks[i]
		fmt.Fprintf(w, "%15s|%15d|%s\n", level.Price, level.Quantity, red("ASK"))
	}

	fmt.Fprintf(w, "%15s|%15s|%s\n",
		"---------------",
		"---------------",
		"----")

	for _, level := range view.Bids {
		fmt.Fprintf(w, "%15s|%15d|%s\n", level.Price, level.Quantity, green("BID"))
	}

	return w.Flush()
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  submit --id=<id> --type=<GTC|GFD|MARKET|FAK|FOK> --side=<BUY|SELL> --qty=<n> [--price=<decimal>]")
	fmt.Println("  modify --id=<id> --side=<BUY|SELL> --qty=<n> --price=<decimal>")
	fmt.Println("  cancel <id>")
	fmt.Println("  book")
	fmt.Println("  watch")
	fmt.Println("\nExamples:")
	fmt.Println("  submit --id=1 --type=GTC --side=SELL --qty=10 --price=100.50")
	fmt.Println("  submit --id=2 --type=MARKET --side=BUY --qty=5")
	fmt.Println("  modify --id=1 --side=SELL --qty=8 --price=100.40")
	fmt.Println("  cancel 1")
	fmt.Println("  book")
	fmt.Println("  watch")
}
