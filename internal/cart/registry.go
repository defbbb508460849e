package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/Pratikmahatara/Shoe/internal/domain"
	"github.com/Pratikmahatara/Shoe/internal/repository"
)

const lockStripes = 256

// Notifier is told about every successful local mutation, after the hub has
// been signalled. Failures are logged and never fail the mutation.
type Notifier interface {
	CartChanged(ctx context.Context, cartID string, items []domain.LineItem) error
}

// Registry hands out a Store per cart id. All stores of one id share the
// same lock stripe and hub, so mutations on one cart are serialised inside
// the process.
type Registry struct {
	slots    repository.CartSlots
	hub      *Hub
	notifier Notifier
	logger   *slog.Logger
	locks    [lockStripes]sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithNotifier attaches a change notifier, typically the event publisher.
func WithNotifier(n Notifier) Option {
	return func(r *Registry) { r.notifier = n }
}

// NewRegistry creates a registry over slots.
func NewRegistry(slots repository.CartSlots, hub *Hub, logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		slots:  slots,
		hub:    hub,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the store bound to cartID.
func (r *Registry) Store(cartID string) *Store {
	return &Store{cartID: cartID, reg: r}
}

// Hub returns the registry's signal hub.
func (r *Registry) Hub() *Hub { return r.hub }

// Ping checks the durable backend.
func (r *Registry) Ping(ctx context.Context) error {
	return r.slots.Ping(ctx)
}

func (r *Registry) lockFor(cartID string) *sync.Mutex {
	return &r.locks[xxhash.Sum64String(cartID)%lockStripes]
}
