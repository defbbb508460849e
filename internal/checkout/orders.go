package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Pratikmahatara/Shoe/internal/domain"
	"github.com/Pratikmahatara/Shoe/pkg/httpclient"
)

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// OrderPlacer creates orders.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error)
}

// OrderClient posts orders to the external order API. It must be built on a
// client without retries: no idempotency key is sent, so a retry after a
// lost response could place the order twice.
type OrderClient struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewOrderClient creates an order client for baseURL.
func NewOrderClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *OrderClient {
	return &OrderClient{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// PlaceOrder sends a single POST /orders/ request. A non-2xx answer wraps
// ErrOrderRejected around the parsed *httpclient.ResponseError; no answer
// wraps ErrOrderUnavailable.
func (c *OrderClient) PlaceOrder(ctx context.Context, order domain.OrderRequest) (domain.OrderConfirmation, error) {
	var conf domain.OrderConfirmation

	body, err := json.Marshal(order)
	if err != nil {
		return conf, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders/", bytes.NewReader(body))
	if err != nil {
		return conf, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		var respErr *httpclient.ResponseError
		if errors.As(err, &respErr) {
			return conf, fmt.Errorf("%w: %w", ErrOrderRejected, respErr)
		}
		return conf, fmt.Errorf("%w: %w", ErrOrderUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return conf, fmt.Errorf("%w: %w", ErrOrderRejected, httpclient.ParseResponseError(resp, "orders"))
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&conf); err != nil {
		return conf, fmt.Errorf("decode order response: %w", err)
	}

	c.logger.InfoContext(ctx, "order created",
		slog.Int64("order_id", conf.ID),
		slog.Int("items", len(order.Items)),
	)
	return conf, nil
}
