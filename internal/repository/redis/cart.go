package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces cart slots; the suffix is the shopper's cart id.
const KeyPrefix = "shoe_shop_cart:"

// CartSlots implements repository.CartSlots on Redis. Every read and write
// pushes the expiry out by ttl, so active carts never expire.
type CartSlots struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartSlots creates a Redis-backed slot store. A zero ttl keeps slots
// forever.
func NewCartSlots(client *redis.Client, ttl time.Duration) *CartSlots {
	return &CartSlots{
		client: client,
		ttl:    ttl,
	}
}

func key(cartID string) string {
	return KeyPrefix + cartID
}

// Load reads the slot and refreshes its expiry.
func (s *CartSlots) Load(ctx context.Context, cartID string) ([]byte, error) {
	var cmd *redis.StringCmd
	if s.ttl > 0 {
		cmd = s.client.GetEx(ctx, key(cartID), s.ttl)
	} else {
		cmd = s.client.Get(ctx, key(cartID))
	}

	data, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get cart slot: %w", err)
	}
	return data, nil
}

// Save overwrites the slot with the configured TTL.
func (s *CartSlots) Save(ctx context.Context, cartID string, data []byte) error {
	if err := s.client.Set(ctx, key(cartID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart slot: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *CartSlots) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
