package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Pratikmahatara/Shoe/internal/domain"
	apperrors "github.com/Pratikmahatara/Shoe/pkg/errors"
	"github.com/Pratikmahatara/Shoe/pkg/logger"
	"github.com/Pratikmahatara/Shoe/pkg/tracing"
)

var tracer = tracing.Tracer("github.com/Pratikmahatara/Shoe/internal/cart")

// Store is one shopper's cart. The durable slot is the only source of
// truth: every read decodes it again and every mutation rewrites it whole,
// then signals the hub before returning.
type Store struct {
	cartID string
	reg    *Registry
}

// ID returns the cart id the store is bound to.
func (s *Store) ID() string { return s.cartID }

// Read returns the current line items. An absent or undecodable slot reads
// as an empty cart; only backend failures are returned.
func (s *Store) Read(ctx context.Context) ([]domain.LineItem, error) {
	data, err := s.reg.slots.Load(ctx, s.cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return s.decode(ctx, data), nil
}

// Summary reads the cart and derives its aggregates.
func (s *Store) Summary(ctx context.Context) (domain.CartSummary, error) {
	items, err := s.Read(ctx)
	if err != nil {
		return domain.CartSummary{}, err
	}
	return domain.Summarize(items), nil
}

func (s *Store) decode(ctx context.Context, data []byte) []domain.LineItem {
	if len(data) == 0 {
		return []domain.LineItem{}
	}
	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		corruptSlotsTotal.Inc()
		s.log(ctx).WarnContext(ctx, "cart slot is corrupt, reading as empty",
			slog.String("cart_id", s.cartID),
			slog.String("error", err.Error()),
		)
		return []domain.LineItem{}
	}
	if items == nil {
		items = []domain.LineItem{}
	}
	return items
}

// Add merges quantity into the line with the same variant, or appends a new
// line. There is no upper bound and no stock check.
func (s *Store) Add(ctx context.Context, product domain.Product, quantity int, size domain.Size, color string) error {
	if quantity < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}
	key := domain.VariantKey{ProductID: product.ID, Size: size, Color: color}

	return s.mutate(ctx, "add", func(items []domain.LineItem) ([]domain.LineItem, bool) {
		if i := domain.IndexOf(items, key); i >= 0 {
			items[i].Quantity += quantity
			return items, true
		}
		return append(items, domain.LineItem{
			Product:       product,
			Quantity:      quantity,
			SelectedSize:  size,
			SelectedColor: color,
		}), true
	})
}

// Remove deletes the matching line. Removing an absent line still persists
// and signals.
func (s *Store) Remove(ctx context.Context, productID int64, size domain.Size, color string) error {
	key := domain.VariantKey{ProductID: productID, Size: size, Color: color}
	return s.mutate(ctx, "remove", func(items []domain.LineItem) ([]domain.LineItem, bool) {
		return removeLine(items, key), true
	})
}

// SetQuantity overwrites the quantity of the matching line. A quantity of
// zero or less removes it. When no line matches nothing is written and no
// signal is sent.
func (s *Store) SetQuantity(ctx context.Context, productID int64, size domain.Size, color string, quantity int) error {
	key := domain.VariantKey{ProductID: productID, Size: size, Color: color}
	if quantity <= 0 {
		return s.mutate(ctx, "remove", func(items []domain.LineItem) ([]domain.LineItem, bool) {
			return removeLine(items, key), true
		})
	}

	return s.mutate(ctx, "set_quantity", func(items []domain.LineItem) ([]domain.LineItem, bool) {
		i := domain.IndexOf(items, key)
		if i < 0 {
			return items, false
		}
		items[i].Quantity = quantity
		return items, true
	})
}

// Clear empties the cart. It is idempotent.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func([]domain.LineItem) ([]domain.LineItem, bool) {
		return []domain.LineItem{}, true
	})
}

// Subscribe registers an observer of this cart's change signal.
func (s *Store) Subscribe() *Subscription {
	return s.reg.hub.Subscribe(s.cartID)
}

func removeLine(items []domain.LineItem, key domain.VariantKey) []domain.LineItem {
	out := items[:0]
	for _, item := range items {
		if !key.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}

// mutate runs a read-modify-write under the cart's lock stripe. apply
// reports whether the result should be persisted.
func (s *Store) mutate(ctx context.Context, op string, apply func([]domain.LineItem) ([]domain.LineItem, bool)) (err error) {
	ctx, span := tracer.Start(ctx, "cart."+op, trace.WithAttributes(attribute.String("cart.op", op)))
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		mutationsTotal.WithLabelValues(op, result).Inc()
		tracing.End(span, err)
	}()

	items, persisted, err := s.commit(ctx, apply)
	if err != nil {
		return err
	}
	if !persisted {
		span.SetAttributes(attribute.Bool("cart.persisted", false))
		return nil
	}

	// The notifier may block on a broker; it runs outside the lock stripe
	// so other carts hashed to the same stripe are not held up.
	if n := s.reg.notifier; n != nil {
		if nerr := n.CartChanged(ctx, s.cartID, items); nerr != nil {
			s.log(ctx).WarnContext(ctx, "cart change notification failed",
				slog.String("op", op),
				slog.String("error", nerr.Error()),
			)
		}
	}
	return nil
}

// commit reads, applies, saves and signals while holding the lock stripe.
func (s *Store) commit(ctx context.Context, apply func([]domain.LineItem) ([]domain.LineItem, bool)) ([]domain.LineItem, bool, error) {
	mu := s.reg.lockFor(s.cartID)
	mu.Lock()
	defer mu.Unlock()

	items, err := s.Read(ctx)
	if err != nil {
		return nil, false, err
	}

	items, persist := apply(items)
	if !persist {
		return items, false, nil
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, false, fmt.Errorf("encode cart: %w", err)
	}
	if err := s.reg.slots.Save(ctx, s.cartID, data); err != nil {
		return nil, false, fmt.Errorf("save cart: %w", err)
	}

	s.reg.hub.Publish(s.cartID)
	return items, true, nil
}

func (s *Store) log(ctx context.Context) *slog.Logger {
	l := logger.FromContext(ctx)
	if l == slog.Default() && s.reg.logger != nil {
		return s.reg.logger
	}
	return l
}
