package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// IdempotencyStore remembers processed event ids.
type IdempotencyStore interface {
	Contains(ctx context.Context, eventID string) (bool, error)
	Add(ctx context.Context, eventID string) error
}

// LRUIdempotencyStore keeps the most recent event ids in a bounded LRU.
// Entries older than ttl are treated as unseen.
type LRUIdempotencyStore struct {
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewLRUIdempotencyStore creates a store holding at most size ids.
func NewLRUIdempotencyStore(size int, ttl time.Duration) (*LRUIdempotencyStore, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create idempotency cache: %w", err)
	}
	return &LRUIdempotencyStore{cache: cache, ttl: ttl, now: time.Now}, nil
}

func (s *LRUIdempotencyStore) Contains(_ context.Context, eventID string) (bool, error) {
	v, ok := s.cache.Get(eventID)
	if !ok {
		return false, nil
	}
	if s.now().Sub(v.(time.Time)) > s.ttl {
		s.cache.Remove(eventID)
		return false, nil
	}
	return true, nil
}

func (s *LRUIdempotencyStore) Add(_ context.Context, eventID string) error {
	s.cache.Add(eventID, s.now())
	return nil
}

// Len reports how many ids are held, including expired ones not yet evicted.
func (s *LRUIdempotencyStore) Len() int {
	return s.cache.Len()
}

// IdempotentHandler skips events whose EventID was already handled. Events
// are marked only after inner succeeds; a failing store lets the event
// through.
func IdempotentHandler(store IdempotencyStore, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.EventID == "" {
			return inner(ctx, event)
		}

		seen, err := store.Contains(ctx, event.EventID)
		if err != nil {
			logger.WarnContext(ctx, "idempotency lookup failed, processing anyway",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
			return inner(ctx, event)
		}
		if seen {
			consumerMessagesDuplicate.WithLabelValues(event.EventType).Inc()
			logger.DebugContext(ctx, "skipping duplicate event",
				slog.String("event_id", event.EventID),
				slog.String("event_type", event.EventType),
			)
			return nil
		}

		if err := inner(ctx, event); err != nil {
			return err
		}

		if err := store.Add(ctx, event.EventID); err != nil {
			logger.WarnContext(ctx, "failed to record event id",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
}
