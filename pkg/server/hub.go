package server

import "sync"

// subscription is one listener's buffered feed. Slow consumers drop
// messages rather than stall the broadcaster.
type subscription[T any] struct {
	ch chan T
}

// C returns the receive side of the subscription.
func (s *subscription[T]) C() <-chan T {
	return s.ch
}

// hub fans a stream of values out to any number of subscribers.
type hub[T any] struct {
	mu   sync.RWMutex
	subs map[*subscription[T]]struct{}
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[*subscription[T]]struct{})}
}

func (h *hub[T]) Subscribe(buffer int) *subscription[T] {
	sub := &subscription[T]{ch: make(chan T, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub[T]) Unsubscribe(sub *subscription[T]) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
	h.mu.Unlock()
}

func (h *hub[T]) Broadcast(value T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- value:
		default:
		}
	}
}
