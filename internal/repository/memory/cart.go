package memory

import (
	"context"
	"sync"
)

// CartSlots is an in-process repository.CartSlots for local development and
// tests. Slots never expire.
type CartSlots struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewCartSlots creates an empty store.
func NewCartSlots() *CartSlots {
	return &CartSlots{slots: make(map[string][]byte)}
}

func (s *CartSlots) Load(_ context.Context, cartID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.slots[cartID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (s *CartSlots) Save(_ context.Context, cartID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[cartID] = append([]byte(nil), data...)
	return nil
}

// Put seeds a slot with raw bytes, bypassing the cart encoding.
func (s *CartSlots) Put(cartID string, data []byte) {
	_ = s.Save(context.Background(), cartID, data)
}

func (s *CartSlots) Ping(context.Context) error { return nil }
