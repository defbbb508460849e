package cart

import "sync"

// Hub broadcasts payload-less "cart changed" signals to the subscribers of
// each cart id. Observers react by re-reading the store.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription is one observer's registration. Signals coalesce: a burst of
// publishes while the observer is busy is delivered as a single wake-up.
type Subscription struct {
	hub    *Hub
	cartID string
	ch     chan struct{}
	once   sync.Once
}

// C delivers a value after each change. It is never closed.
func (s *Subscription) C() <-chan struct{} { return s.ch }

// Close releases the subscription. After Close returns, C never yields
// again. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		select {
		case <-s.ch:
		default:
		}
	})
}

// Subscribe registers an observer of cartID.
func (h *Hub) Subscribe(cartID string) *Subscription {
	sub := &Subscription{hub: h, cartID: cartID, ch: make(chan struct{}, 1)}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[cartID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[cartID] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.cartID]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.cartID)
	}
}

// Publish signals every current subscriber of cartID. It never blocks.
func (h *Hub) Publish(cartID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[cartID] {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions for cartID.
func (h *Hub) Subscribers(cartID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[cartID])
}
