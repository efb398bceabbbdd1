// Package server exposes the matching engine over HTTP and WebSocket. Order
// entry is synchronous request/response; trades and book updates stream to
// subscribers through broadcast hubs.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"matchbook/pkg/core"
	"matchbook/pkg/logging"
	"matchbook/pkg/messaging"
	"matchbook/pkg/metrics"
	"matchbook/pkg/ticks"
)

// Order lifecycle states reported to API clients.
const (
	StatusResting = "RESTING"
	StatusFilled  = "FILLED"
	StatusKilled  = "KILLED"
)

// Server serves order entry and market data for one symbol.
type Server struct {
	symbol    string
	book      *core.OrderBook
	converter *ticks.Converter
	sender    messaging.Sender
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	tradeHub *hub[tradeView]
	bookHub  *hub[bookView]
	upgrader websocket.Upgrader
}

// New wires a Server around an order book. Trades are published to the
// sender and broadcast to WebSocket subscribers.
func New(symbol string, book *core.OrderBook, converter *ticks.Converter, sender messaging.Sender, m *metrics.Metrics, logger zerolog.Logger) *Server {
	return &Server{
		symbol:    symbol,
		book:      book,
		converter: converter,
		sender:    sender,
		metrics:   m,
		logger:    logger.With().Str("component", "server").Logger(),
		tradeHub:  newHub[tradeView](),
		bookHub:   newHub[bookView](),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", s.handleSubmit)
	mux.HandleFunc("PUT /orders/{id}", s.handleModify)
	mux.HandleFunc("DELETE /orders/{id}", s.handleCancel)
	mux.HandleFunc("GET /book", s.handleBook)
	mux.HandleFunc("GET /ws/trades", s.handleTradeStream)
	mux.HandleFunc("GET /ws/book", s.handleBookStream)
	return logging.Middleware(mux)
}

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

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	order, err := s.buildOrder(req)
	if err != nil {
		s.metrics.OrdersRejected.Inc()
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// The book silently drops duplicate ids; report the conflict here so
	// the submitter is not told the pre-existing order is theirs.
	if s.book.Contains(order.ID()) {
		s.metrics.OrdersRejected.Inc()
		writeError(w, http.StatusConflict, fmt.Errorf("order %d already exists", order.ID()))
		return
	}

	s.processOrder(w, r, order)
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid order id: %w", err))
		return
	}
	if !s.book.Contains(id) {
		writeError(w, http.StatusNotFound, fmt.Errorf("order %d not found", id))
		return
	}

	var req modifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	price, err := s.converter.ToTicks(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	trades := s.book.Modify(id, side, price, req.Quantity)
	s.metrics.SubmitLatency.Observe(time.Since(start).Seconds())

	s.publishTrades(r, trades)
	s.respondOrder(w, id, req.Quantity, trades)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid order id: %w", err))
		return
	}
	if !s.book.Contains(id) {
		writeError(w, http.StatusNotFound, fmt.Errorf("order %d not found", id))
		return
	}

	s.book.Cancel(id)
	s.metrics.OrdersCancelled.Inc()
	s.metrics.RestingOrders.Set(float64(s.book.Size()))
	s.broadcastBook()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bookView())
}

func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.tradeHub.Subscribe(64)
	defer s.tradeHub.Unsubscribe(sub)

	streamTo(conn, sub)
}

func (s *Server) handleBookStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.bookHub.Subscribe(16)
	defer s.bookHub.Unsubscribe(sub)

	// Seed new subscribers with the current state of the book.
	if err := conn.WriteJSON(s.bookView()); err != nil {
		return
	}

	streamTo(conn, sub)
}

// streamTo pumps hub messages to the connection until either side closes.
func streamTo[T any](conn *websocket.Conn, sub *subscription[T]) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// processOrder runs one order through the book and publishes the results.
func (s *Server) processOrder(w http.ResponseWriter, r *http.Request, order *core.Order) {
	id := order.ID()
	quantity := order.InitialQuantity()
	orderType := order.Type()

	start := time.Now()
	trades := s.book.Submit(order)
	s.metrics.SubmitLatency.Observe(time.Since(start).Seconds())
	s.metrics.OrdersSubmitted.WithLabelValues(string(orderType)).Inc()

	s.publishTrades(r, trades)
	s.respondOrder(w, id, quantity, trades)
}

// respondOrder reports the post-submit state of the order. An order that
// produced no trades and is not resting was killed at admission.
func (s *Server) respondOrder(w http.ResponseWriter, id core.OrderID, quantity core.Quantity, trades core.Trades) {
	var filled core.Quantity
	for _, trade := range trades {
		if trade.Bid.OrderID == id || trade.Ask.OrderID == id {
			filled += trade.Quantity()
		}
	}

	status := StatusKilled
	switch {
	case filled >= quantity:
		status = StatusFilled
	case s.book.Contains(id):
		status = StatusResting
	default:
		if filled == 0 {
			s.metrics.OrdersRejected.Inc()
		}
	}
	s.metrics.RestingOrders.Set(float64(s.book.Size()))

	writeJSON(w, http.StatusOK, orderResponse{
		OrderID:        id,
		Status:         status,
		FilledQuantity: filled,
		Trades:         s.tradeViews(trades, time.Now()),
	})
}

// publishTrades fans executions out to the configured sender and to the
// WebSocket hubs. Publish failures are logged, never surfaced to the
// submitter; the fills already happened.
func (s *Server) publishTrades(r *http.Request, trades core.Trades) {
	if len(trades) > 0 {
		executedAt := time.Now()
		s.metrics.TradesExecuted.Add(float64(len(trades)))

		for _, msg := range messaging.FromTrades(s.symbol, trades, executedAt) {
			s.metrics.QuantityTraded.Add(float64(msg.Quantity))
			if err := s.sender.SendTrade(r.Context(), msg); err != nil {
				s.logger.Error().Err(err).
					Uint64("bid_order_id", msg.BidOrderID).
					Uint64("ask_order_id", msg.AskOrderID).
					Msg("Failed to publish trade")
			}
		}
		for _, view := range s.tradeViews(trades, executedAt) {
			s.tradeHub.Broadcast(view)
		}
	}
	s.broadcastBook()
}

func (s *Server) broadcastBook() {
	s.bookHub.Broadcast(s.bookView())
}

func (s *Server) bookView() bookView {
	snapshot := s.book.Snapshot()
	return bookView{
		Symbol: s.symbol,
		Bids:   s.levelViews(snapshot.Bids),
		Asks:   s.levelViews(snapshot.Asks),
	}
}

func (s *Server) levelViews(levels []core.LevelInfo) []levelView {
	views := make([]levelView, 0, len(levels))
	for _, level := range levels {
		views = append(views, levelView{
			Price:    s.converter.FromTicks(level.Price),
			Quantity: level.Quantity,
		})
	}
	return views
}

func (s *Server) tradeViews(trades core.Trades, executedAt time.Time) []tradeView {
	views := make([]tradeView, 0, len(trades))
	for _, trade := range trades {
		views = append(views, tradeView{
			Symbol:     s.symbol,
			BidOrderID: trade.Bid.OrderID,
			AskOrderID: trade.Ask.OrderID,
			BidPrice:   s.converter.FromTicks(trade.Bid.Price),
			AskPrice:   s.converter.FromTicks(trade.Ask.Price),
			Quantity:   trade.Quantity(),
			ExecutedAt: executedAt,
		})
	}
	return views
}

func (s *Server) buildOrder(req orderRequest) (*core.Order, error) {
	side, err := parseSide(req.Side)
	if err != nil {
		return nil, err
	}

	orderType := core.OrderType(strings.ToUpper(req.Type))
	if orderType == core.Market {
		return core.NewMarketOrder(req.ID, side, req.Quantity)
	}

	price, err := s.converter.ToTicks(req.Price)
	if err != nil {
		return nil, err
	}
	return core.NewOrder(orderType, req.ID, side, price, req.Quantity)
}

func parseSide(value string) (core.Side, error) {
	switch strings.ToUpper(value) {
	case "BUY":
		return core.Buy, nil
	case "SELL":
		return core.Sell, nil
	default:
		return 0, errors.New("side must be BUY or SELL")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
