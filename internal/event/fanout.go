package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/Pratikmahatara/Shoe/pkg/kafka"
)

// Signaller wakes local observers of a cart; *cart.Hub satisfies it.
type Signaller interface {
	Publish(cartID string)
}

// FanOut relays cart.updated events written by other replicas to this
// replica's hub, so an SSE stream held here sees changes made elsewhere.
type FanOut struct {
	hub        Signaller
	instanceID string
	logger     *slog.Logger
}

// NewFanOut creates the relay for the replica instanceID.
func NewFanOut(hub Signaller, instanceID string, logger *slog.Logger) *FanOut {
	return &FanOut{hub: hub, instanceID: instanceID, logger: logger}
}

// Handle is a pkgkafka.Handler.
func (f *FanOut) Handle(ctx context.Context, evt *pkgkafka.Event) error {
	if evt.EventType != "cart.updated" {
		return nil
	}
	if evt.Metadata[MetadataInstance] == f.instanceID {
		return nil
	}

	cartID := evt.AggregateID
	if cartID == "" {
		var data CartUpdatedData
		if err := evt.UnmarshalData(&data); err != nil {
			return fmt.Errorf("decode cart.updated payload: %w", err)
		}
		cartID = data.CartID
	}
	if cartID == "" {
		f.logger.WarnContext(ctx, "cart.updated event without cart id", slog.String("event_id", evt.EventID))
		return nil
	}

	f.hub.Publish(cartID)
	return nil
}

// Handler wraps Handle with duplicate suppression.
func (f *FanOut) Handler(store pkgkafka.IdempotencyStore) pkgkafka.Handler {
	return pkgkafka.IdempotentHandler(store, f.Handle, f.logger)
}

// GroupID is the consumer group of this replica. Every replica needs every
// event, so each uses its own group.
func GroupID(instanceID string) string {
	return "storefront-fanout-" + instanceID
}
