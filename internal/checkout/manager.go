package checkout

import (
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/Pratikmahatara/Shoe/internal/cart"
)

// DefaultSessionLimit bounds the sessions kept in memory.
const DefaultSessionLimit = 10000

// Manager keeps one session per cart id in a bounded LRU. Evicted or removed
// sessions are closed, so an in-flight submission of an evicted session
// drops its result.
type Manager struct {
	registry *cart.Registry
	orders   OrderPlacer
	notifier CompletionNotifier
	logger   *slog.Logger

	mu       sync.Mutex
	sessions *lru.Cache
}

// NewManager creates a manager holding at most limit sessions.
func NewManager(registry *cart.Registry, orders OrderPlacer, notifier CompletionNotifier, limit int, logger *slog.Logger) (*Manager, error) {
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	sessions, err := lru.NewWithEvict(limit, func(_ interface{}, value interface{}) {
		if s, ok := value.(*Session); ok {
			s.Close()
		}
		activeSessions.Dec()
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}

	return &Manager{
		registry: registry,
		orders:   orders,
		notifier: notifier,
		logger:   logger,
		sessions: sessions,
	}, nil
}

// Session returns the live session for cartID, starting one if needed.
func (m *Manager) Session(cartID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.sessions.Get(cartID); ok {
		if s := v.(*Session); !s.Closed() {
			return s
		}
		m.sessions.Remove(cartID)
	}

	s := NewSession(m.registry.Store(cartID), m.orders, m.notifier, m.logger)
	m.sessions.Add(cartID, s)
	activeSessions.Inc()
	return s
}

// Lookup returns the session for cartID without creating one.
func (m *Manager) Lookup(cartID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.sessions.Peek(cartID)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Close tears down the session of cartID, if any.
func (m *Manager) Close(cartID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	present := m.sessions.Contains(cartID)
	m.sessions.Remove(cartID)
	return present
}

// Len returns the number of sessions held.
func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.Purge()
}
