package repository

import "context"

// CartSlots stores one opaque encoded cart per cart id. The cart package owns
// the encoding; implementations only move bytes.
type CartSlots interface {
	// Load returns the stored bytes, or nil and no error when the slot is
	// absent or expired.
	Load(ctx context.Context, cartID string) ([]byte, error)

	// Save overwrites the slot.
	Save(ctx context.Context, cartID string, data []byte) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
