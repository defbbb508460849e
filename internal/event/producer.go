package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Pratikmahatara/Shoe/internal/domain"
	pkgkafka "github.com/Pratikmahatara/Shoe/pkg/kafka"
	"github.com/Pratikmahatara/Shoe/pkg/logger"
)

// Kafka topics of storefront events.
var (
	TopicCartUpdated       = pkgkafka.Topic("storefront", "cart.updated")
	TopicCheckoutCompleted = pkgkafka.Topic("storefront", "checkout.completed")
)

const (
	// SourceStorefront identifies events published by this service.
	SourceStorefront = "storefront"

	AggregateTypeCart = "cart"

	// MetadataInstance carries the publishing replica's id so a replica can
	// ignore its own events.
	MetadataInstance = "instance_id"
)

// CartItemData is one line of a cart event.
type CartItemData struct {
	ProductID int64  `json:"product_id"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// CartUpdatedData is the payload of a cart.updated event.
type CartUpdatedData struct {
	CartID    string         `json:"cart_id"`
	Items     []CartItemData `json:"items"`
	ItemCount int            `json:"item_count"`
	Subtotal  string         `json:"subtotal"`
}

// CheckoutCompletedData is the payload of a checkout.completed event.
type CheckoutCompletedData struct {
	CartID    string         `json:"cart_id"`
	OrderID   int64          `json:"order_id"`
	Email     string         `json:"email"`
	Items     []CartItemData `json:"items"`
	ItemCount int            `json:"item_count"`
}

// Publisher is the sink events are written to; *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events. It is plugged into the cart
// registry as a change notifier and into checkout as a completion notifier.
type Producer struct {
	kafka      Publisher
	instanceID string
	logger     *slog.Logger
}

// NewProducer creates an event producer for the replica instanceID.
func NewProducer(kafka Publisher, instanceID string, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:      kafka,
		instanceID: instanceID,
		logger:     logger,
	}
}

// CartChanged publishes a cart.updated event with the new contents.
func (p *Producer) CartChanged(ctx context.Context, cartID string, items []domain.LineItem) error {
	data := CartUpdatedData{
		CartID:    cartID,
		Items:     make([]CartItemData, 0, len(items)),
		ItemCount: domain.Count(items),
		Subtotal:  domain.FormatAmount(domain.Subtotal(items)),
	}
	for _, item := range items {
		data.Items = append(data.Items, CartItemData{
			ProductID: item.Product.ID,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			Size:      item.SelectedSize.String(),
			Color:     item.SelectedColor,
		})
	}

	return p.publish(ctx, TopicCartUpdated, "cart.updated", cartID, data)
}

// CheckoutCompleted publishes a checkout.completed event for a placed order.
func (p *Producer) CheckoutCompleted(ctx context.Context, cartID string, order domain.OrderRequest, conf domain.OrderConfirmation) error {
	data := CheckoutCompletedData{
		CartID:  cartID,
		OrderID: conf.ID,
		Email:   order.Email,
		Items:   make([]CartItemData, 0, len(order.Items)),
	}
	for _, line := range order.Items {
		data.Items = append(data.Items, CartItemData{
			ProductID: line.Product,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
		})
		data.ItemCount += line.Quantity
	}

	return p.publish(ctx, TopicCheckoutCompleted, "checkout.completed", cartID, data)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, cartID string, data any) error {
	evt, err := pkgkafka.NewEvent(eventType, cartID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	evt.WithMetadata(MetadataInstance, p.instanceID)
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("event_type", eventType),
		slog.String("cart_id", cartID),
	)
	return nil
}
